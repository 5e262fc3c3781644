package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// Events

// CreateEvent creates an event. An empty title is generated from the
// location and the start date.
func (e *Engine) CreateEvent(ctx context.Context, title, location string, startsAt *time.Time) (*models.Event, error) {
	now := e.clock.Now()
	event := &models.Event{
		Title:     strings.TrimSpace(title),
		Location:  strings.TrimSpace(location),
		StartsAt:  startsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	slog.Info("Event created", "event_id", event.ID, "title", event.Title)
	return event, nil
}

func (e *Engine) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound, eventID)
	}
	return event, nil
}

func (e *Engine) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events, err := e.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes an event with its memberships, contributions and
// transfers. The activity log keeps its entries.
func (e *Engine) DeleteEvent(ctx context.Context, eventID string) error {
	if err := e.store.DeleteEvent(ctx, eventID); err != nil {
		return notFound(err, ErrEventNotFound, eventID)
	}
	slog.Info("Event deleted", "event_id", eventID)
	return nil
}

// Participants

func (e *Engine) CreateParticipant(ctx context.Context, name string) (*models.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArgument("participant name is required")
	}
	participant := &models.Participant{Name: name, CreatedAt: e.clock.Now()}
	if err := e.store.CreateParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

func (e *Engine) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	participant, err := e.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, notFound(err, ErrParticipantNotFound, participantID)
	}
	return participant, nil
}

func (e *Engine) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	participants, err := e.store.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// ListEventParticipants returns the members of an event in join order.
func (e *Engine) ListEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error) {
	if _, err := e.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	members, err := e.store.GetEventParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event participants: %w", err)
	}
	return members, nil
}

// AddParticipantToEvent makes the participant a member of the event. The
// fair share changes with the member count, so the event is reconciled.
// Adding an existing member returns an error wrapping storage.ErrConflict.
func (e *Engine) AddParticipantToEvent(ctx context.Context, eventID, participantID string) error {
	if _, err := e.GetEvent(ctx, eventID); err != nil {
		return err
	}
	if _, err := e.GetParticipant(ctx, participantID); err != nil {
		return err
	}

	if err := e.store.AddEventParticipant(ctx, eventID, participantID, e.clock.Now()); err != nil {
		return fmt.Errorf("failed to add participant to event: %w", err)
	}
	slog.Info("Participant joined event", "event_id", eventID, "participant_id", participantID)

	e.reconcileEvent(ctx, eventID)
	return nil
}

// RemoveParticipantFromEvent deletes the participant's contributions in the
// event and the membership, then reconciles. Transfers naming the
// participant disappear with the reconcile.
func (e *Engine) RemoveParticipantFromEvent(ctx context.Context, eventID, participantID string) error {
	if _, err := e.GetEvent(ctx, eventID); err != nil {
		return err
	}
	if err := e.store.RemoveEventParticipant(ctx, eventID, participantID); err != nil {
		return notFound(err, ErrParticipantNotFound, participantID)
	}
	slog.Info("Participant left event", "event_id", eventID, "participant_id", participantID)

	e.reconcileEvent(ctx, eventID)
	return nil
}

// Items

func (e *Engine) CreateItem(ctx context.Context, name, category string) (*models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArgument("item name is required")
	}
	item := &models.Item{Name: name, Category: strings.TrimSpace(category), CreatedAt: e.clock.Now()}
	if err := e.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (e *Engine) ListItems(ctx context.Context) ([]*models.Item, error) {
	items, err := e.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Contributions

// ContributionInput describes a new contribution. Quantity 0 means 1.
// An empty ParticipantID leaves the contribution unassigned.
type ContributionInput struct {
	EventID       string
	ItemID        string
	ParticipantID string
	Quantity      int
	Cost          decimal.Decimal
}

// AddContribution adds an item to an event and reconciles the event.
func (e *Engine) AddContribution(ctx context.Context, in ContributionInput) (*models.Contribution, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if err := validateAmounts(in.Quantity, in.Cost); err != nil {
		return nil, err
	}
	if _, err := e.GetEvent(ctx, in.EventID); err != nil {
		return nil, err
	}
	if _, err := e.store.GetItem(ctx, in.ItemID); err != nil {
		return nil, notFound(err, ErrItemNotFound, in.ItemID)
	}
	if in.ParticipantID != "" {
		if err := e.requireMember(ctx, in.EventID, in.ParticipantID); err != nil {
			return nil, err
		}
	}

	now := e.clock.Now()
	c := &models.Contribution{
		EventID:       in.EventID,
		ItemID:        in.ItemID,
		ParticipantID: in.ParticipantID,
		Quantity:      in.Quantity,
		Cost:          in.Cost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.CreateContribution(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contribution: %w", err)
	}
	slog.Debug("Contribution added",
		"event_id", c.EventID,
		"contribution_id", c.ID,
		"participant_id", c.ParticipantID,
		"amount", c.Amount().String(),
	)

	e.reconcileEvent(ctx, c.EventID)
	return c, nil
}

// ListContributions returns the contributions of an event, oldest first.
func (e *Engine) ListContributions(ctx context.Context, eventID string) ([]*models.Contribution, error) {
	if _, err := e.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	contributions, err := e.store.GetContributions(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	return contributions, nil
}

// AssignContribution sets the payer of a contribution to a member of its event.
func (e *Engine) AssignContribution(ctx context.Context, contributionID, participantID string) (*models.Contribution, error) {
	if participantID == "" {
		return nil, invalidArgument("participant is required")
	}
	return e.updateContribution(ctx, contributionID, func(c *models.Contribution) error {
		if err := e.requireMember(ctx, c.EventID, participantID); err != nil {
			return err
		}
		c.ParticipantID = participantID
		return nil
	})
}

// UnassignContribution clears the payer. Its amount moves to the unassigned costs.
func (e *Engine) UnassignContribution(ctx context.Context, contributionID string) (*models.Contribution, error) {
	return e.updateContribution(ctx, contributionID, func(c *models.Contribution) error {
		c.ParticipantID = ""
		return nil
	})
}

// UpdateContribution changes quantity and/or cost. Nil leaves a field unchanged.
func (e *Engine) UpdateContribution(ctx context.Context, contributionID string, quantity *int, cost *decimal.Decimal) (*models.Contribution, error) {
	return e.updateContribution(ctx, contributionID, func(c *models.Contribution) error {
		if quantity != nil {
			c.Quantity = *quantity
		}
		if cost != nil {
			c.Cost = *cost
		}
		return validateAmounts(c.Quantity, c.Cost)
	})
}

// DeleteContribution removes a contribution and reconciles its event.
func (e *Engine) DeleteContribution(ctx context.Context, contributionID string) error {
	c, err := e.store.GetContribution(ctx, contributionID)
	if err != nil {
		return notFound(err, ErrContributionNotFound, contributionID)
	}
	if err := e.store.DeleteContribution(ctx, contributionID); err != nil {
		return notFound(err, ErrContributionNotFound, contributionID)
	}

	e.reconcileEvent(ctx, c.EventID)
	return nil
}

func (e *Engine) updateContribution(ctx context.Context, contributionID string, mutate func(c *models.Contribution) error) (*models.Contribution, error) {
	c, err := e.store.GetContribution(ctx, contributionID)
	if err != nil {
		return nil, notFound(err, ErrContributionNotFound, contributionID)
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = e.clock.Now()

	if err := e.store.UpdateContribution(ctx, c); err != nil {
		return nil, notFound(err, ErrContributionNotFound, contributionID)
	}

	e.reconcileEvent(ctx, c.EventID)
	return c, nil
}

// requireMember fails with ErrInvalidArgument when participantID is not a
// member of the event.
func (e *Engine) requireMember(ctx context.Context, eventID, participantID string) error {
	members, err := e.store.GetEventParticipants(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event participants: %w", err)
	}
	for _, m := range members {
		if m.ID == participantID {
			return nil
		}
	}
	return invalidArgument("participant %s is not a member of event %s", participantID, eventID)
}

func validateAmounts(quantity int, cost decimal.Decimal) error {
	if quantity < 1 {
		return invalidArgument("quantity must be at least 1, got %d", quantity)
	}
	if cost.IsNegative() {
		return invalidArgument("cost must not be negative, got %s", cost.String())
	}
	if !cost.Equal(cost.Round(2)) {
		return invalidArgument("cost must have at most 2 decimal places, got %s", cost.String())
	}
	return nil
}

// Activity log

// ListActivityLog returns toggle activity newest first. An empty eventID
// lists all events.
func (e *Engine) ListActivityLog(ctx context.Context, eventID string, limit int) ([]*models.ActivityLogEntry, error) {
	entries, err := e.store.ListActivityLog(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log: %w", err)
	}
	return entries, nil
}
