package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apierrors "github.com/oa2006040/Kashta-Planner-sub000/internal/api/apierrors"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
)

// MaxActivityLogLimit caps the page size of activity log reads.
const MaxActivityLogLimit = 500

// EventRequest addresses one event
type EventRequest struct {
	EventID string `json:"eventId"`
}

// Validate validates the request body
func (r *EventRequest) Validate() error {
	return requireID("eventId", r.EventID)
}

// ParticipantRequest addresses one participant
type ParticipantRequest struct {
	ParticipantID string `json:"participantId"`
}

// Validate validates the request body
func (r *ParticipantRequest) Validate() error {
	return requireID("participantId", r.ParticipantID)
}

// EmptyRequest is the body of calls without arguments
type EmptyRequest struct{}

// ToggleSettlementRequest flips the paid flag of one transfer
type ToggleSettlementRequest struct {
	EventID    string `json:"eventId"`
	DebtorID   string `json:"debtorId"`
	CreditorID string `json:"creditorId"`
}

// Validate validates the request body
func (r *ToggleSettlementRequest) Validate() error {
	if err := requireID("eventId", r.EventID); err != nil {
		return err
	}
	if err := requireID("debtorId", r.DebtorID); err != nil {
		return err
	}
	if err := requireID("creditorId", r.CreditorID); err != nil {
		return err
	}
	if r.DebtorID == r.CreditorID {
		return apierrors.NewValidationError("debtorId and creditorId must differ")
	}
	return nil
}

// CreateEventRequest represents the request body for creating an event.
// An empty title is derived from the location and date.
type CreateEventRequest struct {
	Title    string     `json:"title"`
	Location string     `json:"location"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
}

// Validate validates the request body
func (r *CreateEventRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	return nil
}

// CreateParticipantRequest represents the request body for creating a participant
type CreateParticipantRequest struct {
	Name string `json:"name"`
}

// Validate validates the request body
func (r *CreateParticipantRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apierrors.NewValidationError("name is required")
	}
	return nil
}

// EventParticipantRequest adds a participant to, or removes one from, an event
type EventParticipantRequest struct {
	EventID       string `json:"eventId"`
	ParticipantID string `json:"participantId"`
}

// Validate validates the request body
func (r *EventParticipantRequest) Validate() error {
	if err := requireID("eventId", r.EventID); err != nil {
		return err
	}
	return requireID("participantId", r.ParticipantID)
}

// CreateItemRequest represents the request body for creating a catalog item
type CreateItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Validate validates the request body
func (r *CreateItemRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apierrors.NewValidationError("name is required")
	}
	return nil
}

// AddContributionRequest represents the request body for adding a contribution.
// Cost is a decimal string; quantity defaults to 1.
type AddContributionRequest struct {
	EventID       string `json:"eventId"`
	ItemID        string `json:"itemId"`
	ParticipantID string `json:"participantId,omitempty"`
	Quantity      int    `json:"quantity"`
	Cost          string `json:"cost"`
}

// Input validates the request and converts it to an engine input
func (r *AddContributionRequest) Input() (settlement.ContributionInput, error) {
	if err := requireID("eventId", r.EventID); err != nil {
		return settlement.ContributionInput{}, err
	}
	if err := requireID("itemId", r.ItemID); err != nil {
		return settlement.ContributionInput{}, err
	}
	cost, err := parseMoney("cost", r.Cost)
	if err != nil {
		return settlement.ContributionInput{}, err
	}
	return settlement.ContributionInput{
		EventID:       r.EventID,
		ItemID:        r.ItemID,
		ParticipantID: r.ParticipantID,
		Quantity:      r.Quantity,
		Cost:          cost,
	}, nil
}

// ContributionRequest addresses one contribution
type ContributionRequest struct {
	ContributionID string `json:"contributionId"`
}

// Validate validates the request body
func (r *ContributionRequest) Validate() error {
	return requireID("contributionId", r.ContributionID)
}

// AssignContributionRequest sets the payer of a contribution
type AssignContributionRequest struct {
	ContributionID string `json:"contributionId"`
	ParticipantID  string `json:"participantId"`
}

// Validate validates the request body
func (r *AssignContributionRequest) Validate() error {
	if err := requireID("contributionId", r.ContributionID); err != nil {
		return err
	}
	return requireID("participantId", r.ParticipantID)
}

// UpdateContributionRequest changes quantity and/or cost. Omitted fields are kept.
type UpdateContributionRequest struct {
	ContributionID string  `json:"contributionId"`
	Quantity       *int    `json:"quantity,omitempty"`
	Cost           *string `json:"cost,omitempty"`
}

// Changes validates the request and returns the fields to update
func (r *UpdateContributionRequest) Changes() (*int, *decimal.Decimal, error) {
	if err := requireID("contributionId", r.ContributionID); err != nil {
		return nil, nil, err
	}
	if r.Quantity == nil && r.Cost == nil {
		return nil, nil, apierrors.NewValidationError("quantity or cost is required")
	}
	var cost *decimal.Decimal
	if r.Cost != nil {
		c, err := parseMoney("cost", *r.Cost)
		if err != nil {
			return nil, nil, err
		}
		cost = &c
	}
	return r.Quantity, cost, nil
}

// ListActivityLogRequest lists toggle activity. An empty event lists all events.
type ListActivityLogRequest struct {
	EventID string `json:"eventId,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Validate validates the request body
func (r *ListActivityLogRequest) Validate() error {
	if r.Limit < 0 || r.Limit > MaxActivityLogLimit {
		return apierrors.NewValidationError(fmt.Sprintf("limit must be between 0 and %d", MaxActivityLogLimit))
	}
	return nil
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apierrors.NewValidationError(field + " is required")
	}
	return nil
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, apierrors.NewValidationError(field + " is required")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, apierrors.NewValidationError(fmt.Sprintf("invalid %s: %s", field, value))
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, apierrors.NewValidationError(fmt.Sprintf("%s must have at most 2 decimal places: %s", field, value))
	}
	return d, nil
}
