package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// ToggleSettlementStatus flips the paid flag of the transfer from debtorID to
// creditorID in an event. SettledAt is stamped when the transfer becomes
// settled and cleared when it is reopened.
//
// The transfer must already exist; ErrSettlementNotFound is returned otherwise.
// After the flag is committed an activity log entry is appended and the change
// is published. Those two steps are best-effort and never fail the toggle.
func (e *Engine) ToggleSettlementStatus(ctx context.Context, eventID, debtorID, creditorID string) (*models.SettlementRecord, error) {
	if debtorID == "" || creditorID == "" {
		return nil, invalidArgument("debtor and creditor are required")
	}

	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound, eventID)
	}

	var record *models.SettlementRecord
	err = e.withRetry(ctx, "toggle", func() error {
		return e.store.WithEventSettlementTx(ctx, eventID, func(tx storage.SettlementTx) error {
			rec, err := tx.GetSettlementRecord(ctx, eventID, debtorID, creditorID)
			if err != nil {
				return err
			}

			now := e.clock.Now()
			rec.IsSettled = !rec.IsSettled
			if rec.IsSettled {
				rec.SettledAt = &now
			} else {
				rec.SettledAt = nil
			}
			rec.UpdatedAt = now

			if err := tx.UpdateSettlementStatus(ctx, rec); err != nil {
				return err
			}
			record = rec
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s -> %s in event %s", ErrSettlementNotFound, debtorID, creditorID, eventID)
		}
		return nil, fmt.Errorf("failed to toggle settlement: %w", err)
	}

	action := models.ActivityCancellation
	if record.IsSettled {
		action = models.ActivityPayment
	}
	e.metrics.IncToggle(string(action))
	slog.Info("Settlement status toggled",
		"event_id", eventID,
		"debtor_id", debtorID,
		"creditor_id", creditorID,
		"action", action,
	)

	e.recordActivity(ctx, event, record, action)
	return record, nil
}

// recordActivity appends the audit entry and publishes the toggle.
func (e *Engine) recordActivity(ctx context.Context, event *models.Event, rec *models.SettlementRecord, action models.ActivityAction) {
	names := map[string]string{}
	participants, err := e.store.GetParticipantsByIDs(ctx, []string{rec.DebtorID, rec.CreditorID})
	if err != nil {
		slog.Warn("Failed to load names for activity log", "event_id", event.ID, "error", err)
	}
	for id, p := range participants {
		names[id] = p.Name
	}

	entry := &models.ActivityLogEntry{
		EventID:      event.ID,
		EventTitle:   event.Title,
		DebtorID:     rec.DebtorID,
		DebtorName:   names[rec.DebtorID],
		CreditorID:   rec.CreditorID,
		CreditorName: names[rec.CreditorID],
		Amount:       rec.Amount,
		Action:       action,
		ActorID:      ActorFrom(ctx),
		CreatedAt:    rec.UpdatedAt,
	}
	if err := e.store.AppendActivityLog(ctx, entry); err != nil {
		e.metrics.IncAuditFailure()
		slog.Error("Failed to append activity log", "event_id", event.ID, "action", action, "error", err)
	}

	activity := &models.SettlementActivity{
		EventID:      entry.EventID,
		EventTitle:   entry.EventTitle,
		DebtorID:     entry.DebtorID,
		DebtorName:   entry.DebtorName,
		CreditorID:   entry.CreditorID,
		CreditorName: entry.CreditorName,
		Amount:       entry.Amount,
		Action:       action,
		OccurredAt:   entry.CreatedAt,
	}
	if err := e.publisher.PublishSettlementActivity(ctx, activity); err != nil {
		e.metrics.IncAuditFailure()
		slog.Warn("Failed to publish settlement activity", "event_id", event.ID, "action", action, "error", err)
	}
}
