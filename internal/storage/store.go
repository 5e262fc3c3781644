// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// Store defines the interface for trip planner storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the settlement engine.
//
// Lookups by ID return an error wrapping ErrNotFound when the row is missing.
type Store interface {
	// CreateEvent persists a new event. ID and timestamps are populated by the store when empty.
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)

	// DeleteEvent removes an event together with its memberships, contributions
	// and settlement records. Activity log entries are kept.
	DeleteEvent(ctx context.Context, eventID string) error

	CreateParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]*models.Participant, error)

	// GetParticipantsByIDs returns a map of participant ID to participant.
	// Participants that don't exist are omitted from the result.
	GetParticipantsByIDs(ctx context.Context, ids []string) (map[string]*models.Participant, error)

	// AddEventParticipant adds a participant to an event.
	// Returns ErrConflict if the participant already joined.
	AddEventParticipant(ctx context.Context, eventID, participantID string, joinedAt time.Time) error

	// RemoveEventParticipant deletes the participant's contributions in the event
	// and then the membership, in one transaction.
	RemoveEventParticipant(ctx context.Context, eventID, participantID string) error

	// GetEventParticipants returns the members of an event in join order.
	GetEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error)

	// ListEventsForParticipant returns every event the participant is a member of,
	// oldest first.
	ListEventsForParticipant(ctx context.Context, participantID string) ([]*models.Event, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)

	CreateContribution(ctx context.Context, contribution *models.Contribution) error
	GetContribution(ctx context.Context, contributionID string) (*models.Contribution, error)

	// UpdateContribution overwrites payer, quantity and cost of an existing contribution.
	UpdateContribution(ctx context.Context, contribution *models.Contribution) error
	DeleteContribution(ctx context.Context, contributionID string) error

	// GetContributions returns all contributions of an event, oldest first.
	GetContributions(ctx context.Context, eventID string) ([]*models.Contribution, error)

	// GetSettlementRecords returns the persisted transfers of an event outside any transaction.
	GetSettlementRecords(ctx context.Context, eventID string) ([]*models.SettlementRecord, error)

	// WithEventSettlementTx runs fn in a transaction that holds the write lock on
	// the event row, so writers of the same event's settlement records are
	// serialized while other events proceed. The transaction commits when fn
	// returns nil and rolls back otherwise. Returns ErrNotFound when the event
	// does not exist; transient lock failures are wrapped in RetryableError.
	WithEventSettlementTx(ctx context.Context, eventID string, fn func(tx SettlementTx) error) error

	// AppendActivityLog inserts an immutable activity log entry.
	AppendActivityLog(ctx context.Context, entry *models.ActivityLogEntry) error

	// ListActivityLog returns activity entries newest first. An empty eventID
	// lists every event; limit <= 0 means no limit.
	ListActivityLog(ctx context.Context, eventID string, limit int) ([]*models.ActivityLogEntry, error)

	// Close releases any resources held by the store.
	Close() error
}

// SettlementTx is the set of operations available inside WithEventSettlementTx.
// Reads observe the same snapshot the writes commit against.
type SettlementTx interface {
	GetEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error)
	GetContributions(ctx context.Context, eventID string) ([]*models.Contribution, error)

	GetSettlementRecords(ctx context.Context, eventID string) ([]*models.SettlementRecord, error)

	// GetSettlementRecord returns the record for one (event, debtor, creditor) triple.
	GetSettlementRecord(ctx context.Context, eventID, debtorID, creditorID string) (*models.SettlementRecord, error)

	// UpsertSettlementAmount inserts an unsettled record, or overwrites amount
	// and updated_at of the existing record for the same triple. The settled
	// flag of an existing record is left untouched.
	UpsertSettlementAmount(ctx context.Context, record *models.SettlementRecord) error

	// UpdateSettlementStatus writes is_settled, settled_at and updated_at.
	UpdateSettlementStatus(ctx context.Context, record *models.SettlementRecord) error

	DeleteSettlementRecord(ctx context.Context, recordID string) error
}
