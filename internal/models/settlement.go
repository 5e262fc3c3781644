package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is a persisted transfer obligation between two participants
// of one event. At most one record exists per (EventID, DebtorID, CreditorID).
type SettlementRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// EventID is the event this transfer belongs to.
	EventID string

	// DebtorID is the participant who has to pay.
	DebtorID string

	// CreditorID is the participant who receives the payment.
	CreditorID string

	// Amount is the transfer amount. It is overwritten every time the
	// settlement is recomputed.
	Amount decimal.Decimal

	// IsSettled reports whether the debtor has marked the transfer as paid.
	// Recomputation never changes it while the triple still exists.
	IsSettled bool

	// SettledAt is set iff IsSettled is true.
	SettledAt *time.Time

	// CreatedAt is when the transfer was first computed.
	CreatedAt time.Time

	// UpdatedAt is when the amount or the settled flag last changed.
	UpdatedAt time.Time
}

// ActivityAction is the kind of change recorded in the settlement activity log.
type ActivityAction string

const (
	// ActivityPayment is logged when a transfer is marked as paid.
	ActivityPayment ActivityAction = "payment"
	// ActivityCancellation is logged when a paid transfer is marked unpaid again.
	ActivityCancellation ActivityAction = "cancellation"
)

// ActivityLogEntry is an immutable audit row for a settlement toggle.
// Names and titles are snapshots taken at the time of the toggle, so the
// entry stays readable after the event or the participants are deleted.
type ActivityLogEntry struct {
	// ID is a ULID, so entries sort by creation time.
	ID string

	EventID      string
	EventTitle   string
	DebtorID     string
	DebtorName   string
	CreditorID   string
	CreditorName string
	Amount       decimal.Decimal
	Action       ActivityAction

	// ActorID is the authenticated user who toggled the transfer, if known.
	ActorID string

	CreatedAt time.Time
}
