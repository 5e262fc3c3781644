package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is an item brought to one event.
// It is created when an item is added to an event, often with a zero cost and
// no payer, and is later assigned to the participant who paid for it.
type Contribution struct {
	// ID is the unique identifier for the contribution (UUID format).
	ID string

	// EventID is the event this contribution belongs to.
	EventID string

	// ItemID is the item being contributed.
	ItemID string

	// ParticipantID is the payer. Empty when nobody has claimed the item yet;
	// unassigned contributions are tracked as unassigned costs and excluded
	// from the fair share.
	ParticipantID string

	// Quantity is the number of units (at least 1).
	Quantity int

	// Cost is the non-negative unit price.
	Cost decimal.Decimal

	// CreatedAt is when the contribution was created.
	CreatedAt time.Time

	// UpdatedAt is when the contribution was last modified.
	UpdatedAt time.Time
}

// Amount returns quantity × cost.
func (c *Contribution) Amount() decimal.Decimal {
	return c.Cost.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// IsAssigned reports whether a participant has claimed the contribution.
func (c *Contribution) IsAssigned() bool {
	return c.ParticipantID != ""
}
