package models

import (
	"fmt"
	"time"
)

// Event represents a trip that participants join and bring supplies to.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// Title is the display name of the event (e.g., "Desert camp, March").
	Title string

	// Location is a free-form description of where the event takes place.
	Location string

	// StartsAt is when the event begins. Nil when the date is not fixed yet.
	StartsAt *time.Time

	// CreatedAt is when the event was created.
	CreatedAt time.Time

	// UpdatedAt is when the event row was last touched. Settlement
	// reconciliation bumps it so concurrent writers serialize on the event.
	UpdatedAt time.Time
}

// Participant represents a person who can join events.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// Name is the display name shown in balances and transfers.
	Name string

	// CreatedAt is when the participant was created.
	CreatedAt time.Time
}

// Item represents a shared supply that can be brought to events.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name is the item name (e.g., "Charcoal", "Water 20L").
	Name string

	// Category groups items in lists (e.g., "food", "gear"). Optional.
	Category string

	// CreatedAt is when the item was created.
	CreatedAt time.Time
}

// DefaultTitle builds the title used when an event is created without one:
// "<location> - <date>", or "Trip - <date>" without a location. The date is
// StartsAt, or fallback when the event has no start date.
func (e *Event) DefaultTitle(fallback time.Time) string {
	date := fallback
	if e.StartsAt != nil {
		date = *e.StartsAt
	}
	if e.Location == "" {
		return fmt.Sprintf("Trip - %s", date.Format("Jan 2, 2006"))
	}
	return fmt.Sprintf("%s - %s", e.Location, date.Format("Jan 2, 2006"))
}
