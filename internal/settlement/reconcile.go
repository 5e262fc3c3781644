package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/calculator"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/metrics"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// pairKey identifies a transfer within one event.
type pairKey struct {
	debtorID   string
	creditorID string
}

func keyOf(rec *models.SettlementRecord) pairKey {
	return pairKey{debtorID: rec.DebtorID, creditorID: rec.CreditorID}
}

// reconcilePlan holds the writes that bring the persisted records of one
// event in line with a freshly computed transfer list.
type reconcilePlan struct {
	// records is aligned with the transfer list.
	records []*models.SettlementRecord

	upserts []*models.SettlementRecord
	deletes []*models.SettlementRecord
	inserts int
	updates int
}

func (p *reconcilePlan) changed() bool {
	return len(p.upserts) > 0 || len(p.deletes) > 0
}

// planReconcile diffs transfers against the existing records.
//
// A transfer whose pair already has a record keeps that record's settled
// state; only a differing amount is written. New pairs become unsettled
// records. Records whose pair is no longer produced are deleted.
func planReconcile(eventID string, transfers []calculator.Transfer, existing []*models.SettlementRecord, now time.Time) reconcilePlan {
	byPair := make(map[pairKey]*models.SettlementRecord, len(existing))
	for _, rec := range existing {
		byPair[keyOf(rec)] = rec
	}

	plan := reconcilePlan{records: make([]*models.SettlementRecord, len(transfers))}
	produced := make(map[pairKey]bool, len(transfers))
	for i, t := range transfers {
		key := pairKey{debtorID: t.DebtorID, creditorID: t.CreditorID}
		produced[key] = true

		if rec, ok := byPair[key]; ok {
			if rec.Amount.Equal(t.Amount) {
				plan.records[i] = rec
				continue
			}
			updated := *rec
			updated.Amount = t.Amount
			updated.UpdatedAt = now
			plan.records[i] = &updated
			plan.upserts = append(plan.upserts, &updated)
			plan.updates++
			continue
		}

		rec := &models.SettlementRecord{
			ID:         uuid.New().String(),
			EventID:    eventID,
			DebtorID:   t.DebtorID,
			CreditorID: t.CreditorID,
			Amount:     t.Amount,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		plan.records[i] = rec
		plan.upserts = append(plan.upserts, rec)
		plan.inserts++
	}

	for _, rec := range existing {
		if !produced[keyOf(rec)] {
			plan.deletes = append(plan.deletes, rec)
		}
	}
	return plan
}

// GetEventSettlement recomputes the settlement of an event and reconciles the
// persisted transfers with it before returning the view.
func (e *Engine) GetEventSettlement(ctx context.Context, eventID string) (*models.EventSettlement, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound, eventID)
	}
	return e.reconcile(ctx, event)
}

// reconcileEvent is run after every change to an event's members or
// contributions. The change is already committed, so a failure here is only
// logged: the next read reconciles again.
func (e *Engine) reconcileEvent(ctx context.Context, eventID string) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err == nil {
		_, err = e.reconcile(ctx, event)
	}
	if err != nil {
		slog.Error("Failed to reconcile settlement after change", "event_id", eventID, "error", err)
	}
}

func (e *Engine) reconcile(ctx context.Context, event *models.Event) (*models.EventSettlement, error) {
	start := e.clock.Now()

	var (
		result *models.EventSettlement
		plan   reconcilePlan
	)
	err := e.withRetry(ctx, "reconcile", func() error {
		return e.store.WithEventSettlementTx(ctx, event.ID, func(tx storage.SettlementTx) error {
			members, err := tx.GetEventParticipants(ctx, event.ID)
			if err != nil {
				return err
			}
			contributions, err := tx.GetContributions(ctx, event.ID)
			if err != nil {
				return err
			}
			existing, err := tx.GetSettlementRecords(ctx, event.ID)
			if err != nil {
				return err
			}

			balances, transfers := compute(members, contributions)
			plan = planReconcile(event.ID, transfers, existing, e.clock.Now())

			for _, rec := range plan.upserts {
				if err := tx.UpsertSettlementAmount(ctx, rec); err != nil {
					return err
				}
			}
			for _, rec := range plan.deletes {
				if err := tx.DeleteSettlementRecord(ctx, rec.ID); err != nil {
					return err
				}
			}

			result = buildSettlement(event, members, balances, transfers, plan.records)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, event.ID)
		}
		return nil, fmt.Errorf("failed to reconcile event %s: %w", event.ID, err)
	}

	e.metrics.ObserveRecompute(metrics.ModeReconcile, e.clock.Since(start))
	if plan.changed() {
		e.metrics.AddReconcileChanges(plan.inserts, plan.updates, len(plan.deletes))
		slog.Info("Settlement reconciled",
			"event_id", event.ID,
			"inserted", plan.inserts,
			"updated", plan.updates,
			"deleted", len(plan.deletes),
		)
	}
	return result, nil
}

// compute runs the balance calculator and the debt minimizer for one event.
func compute(members []*models.Participant, contributions []*models.Contribution) (calculator.EventBalances, []calculator.Transfer) {
	ids := make([]string, len(members))
	for i, p := range members {
		ids[i] = p.ID
	}

	inputs := make([]calculator.Contribution, len(contributions))
	for i, c := range contributions {
		inputs[i] = calculator.Contribution{
			ParticipantID: c.ParticipantID,
			Quantity:      c.Quantity,
			Cost:          c.Cost,
		}
	}

	balances := calculator.CalculateBalances(ids, inputs)
	return balances, calculator.MinimizeTransfers(balances.Balances)
}

// buildSettlement joins the calculator output with participant names and the
// settled state of records. records is aligned with transfers; a nil entry is
// a transfer that has not been persisted.
func buildSettlement(
	event *models.Event,
	members []*models.Participant,
	balances calculator.EventBalances,
	transfers []calculator.Transfer,
	records []*models.SettlementRecord,
) *models.EventSettlement {
	names := make(map[string]string, len(members))
	for _, p := range members {
		names[p.ID] = p.Name
	}

	view := &models.EventSettlement{
		EventID:          event.ID,
		EventTitle:       event.Title,
		TotalSpent:       balances.Costs.Total,
		AssignedCosts:    balances.Costs.Assigned,
		UnassignedCosts:  balances.Costs.Unassigned,
		ParticipantCount: balances.ParticipantCount,
		FairShare:        balances.FairShare,
		Balances:         make([]models.ParticipantBalance, len(balances.Balances)),
		Transactions:     make([]models.SettlementTransaction, len(transfers)),
	}

	for i, b := range balances.Balances {
		view.Balances[i] = models.ParticipantBalance{
			ParticipantID:   b.ParticipantID,
			ParticipantName: names[b.ParticipantID],
			TotalPaid:       b.TotalPaid,
			FairShare:       b.FairShare,
			Balance:         b.Balance,
			Role:            b.Role,
		}
	}

	for i, t := range transfers {
		tx := models.SettlementTransaction{
			EventID:      event.ID,
			DebtorID:     t.DebtorID,
			DebtorName:   names[t.DebtorID],
			CreditorID:   t.CreditorID,
			CreditorName: names[t.CreditorID],
			Amount:       t.Amount,
		}
		if rec := records[i]; rec != nil {
			tx.ID = rec.ID
			tx.IsSettled = rec.IsSettled
			tx.SettledAt = rec.SettledAt
		}
		view.Transactions[i] = tx
	}

	return view
}
