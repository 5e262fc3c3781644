// Package dto holds the JSON shapes shared by the connect service and the
// REST API, and the mappers from domain models.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// Money renders an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// EventResponse represents a trip
type EventResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Location  string     `json:"location,omitempty"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MapEventToDTO maps a models.Event to EventResponse
func MapEventToDTO(e *models.Event) *EventResponse {
	return &EventResponse{
		ID:        e.ID,
		Title:     e.Title,
		Location:  e.Location,
		StartsAt:  e.StartsAt,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// MapEventsToDTO maps a list of events
func MapEventsToDTO(events []*models.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, MapEventToDTO(e))
	}
	return out
}

// ParticipantResponse represents a person
type ParticipantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// MapParticipantToDTO maps a models.Participant to ParticipantResponse
func MapParticipantToDTO(p *models.Participant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}

// MapParticipantsToDTO maps a list of participants
func MapParticipantsToDTO(participants []*models.Participant) []*ParticipantResponse {
	out := make([]*ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, MapParticipantToDTO(p))
	}
	return out
}

// ItemResponse represents a catalog item
type ItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MapItemToDTO maps a models.Item to ItemResponse
func MapItemToDTO(i *models.Item) *ItemResponse {
	return &ItemResponse{
		ID:        i.ID,
		Name:      i.Name,
		Category:  i.Category,
		CreatedAt: i.CreatedAt,
	}
}

// MapItemsToDTO maps a list of items
func MapItemsToDTO(items []*models.Item) []*ItemResponse {
	out := make([]*ItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, MapItemToDTO(i))
	}
	return out
}

// ContributionResponse represents an item brought to an event
type ContributionResponse struct {
	ID            string    `json:"id"`
	EventID       string    `json:"eventId"`
	ItemID        string    `json:"itemId"`
	ParticipantID string    `json:"participantId,omitempty"`
	Quantity      int       `json:"quantity"`
	Cost          string    `json:"cost"`
	Amount        string    `json:"amount"` // quantity * cost
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MapContributionToDTO maps a models.Contribution to ContributionResponse
func MapContributionToDTO(c *models.Contribution) *ContributionResponse {
	return &ContributionResponse{
		ID:            c.ID,
		EventID:       c.EventID,
		ItemID:        c.ItemID,
		ParticipantID: c.ParticipantID,
		Quantity:      c.Quantity,
		Cost:          Money(c.Cost),
		Amount:        Money(c.Amount()),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// MapContributionsToDTO maps a list of contributions
func MapContributionsToDTO(contributions []*models.Contribution) []*ContributionResponse {
	out := make([]*ContributionResponse, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, MapContributionToDTO(c))
	}
	return out
}

// ActivityLogResponse represents one settlement audit entry
type ActivityLogResponse struct {
	ID           string                `json:"id"`
	EventID      string                `json:"eventId"`
	EventTitle   string                `json:"eventTitle"`
	DebtorID     string                `json:"debtorId"`
	DebtorName   string                `json:"debtorName"`
	CreditorID   string                `json:"creditorId"`
	CreditorName string                `json:"creditorName"`
	Amount       string                `json:"amount"`
	Action       models.ActivityAction `json:"action"`
	ActorID      string                `json:"actorId,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// MapActivityLogToDTO maps a list of activity log entries
func MapActivityLogToDTO(entries []*models.ActivityLogEntry) []*ActivityLogResponse {
	out := make([]*ActivityLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, &ActivityLogResponse{
			ID:           e.ID,
			EventID:      e.EventID,
			EventTitle:   e.EventTitle,
			DebtorID:     e.DebtorID,
			DebtorName:   e.DebtorName,
			CreditorID:   e.CreditorID,
			CreditorName: e.CreditorName,
			Amount:       Money(e.Amount),
			Action:       e.Action,
			ActorID:      e.ActorID,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
