package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/alitto/pond/v2"
	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/calculator"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/metrics"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// readOnlySettlement computes an event's settlement without writing. The
// settled state of each transfer is taken from the persisted record of the
// same pair, if any.
func (e *Engine) readOnlySettlement(ctx context.Context, event *models.Event) (*models.EventSettlement, error) {
	start := e.clock.Now()

	members, err := e.store.GetEventParticipants(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants of event %s: %w", event.ID, err)
	}
	contributions, err := e.store.GetContributions(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions of event %s: %w", event.ID, err)
	}
	existing, err := e.store.GetSettlementRecords(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement records of event %s: %w", event.ID, err)
	}

	balances, transfers := compute(members, contributions)

	byPair := make(map[pairKey]*models.SettlementRecord, len(existing))
	for _, rec := range existing {
		byPair[keyOf(rec)] = rec
	}
	records := make([]*models.SettlementRecord, len(transfers))
	for i, t := range transfers {
		records[i] = byPair[pairKey{debtorID: t.DebtorID, creditorID: t.CreditorID}]
	}

	view := buildSettlement(event, members, balances, transfers, records)
	e.metrics.ObserveRecompute(metrics.ModeReadOnly, e.clock.Since(start))
	return view, nil
}

// eventSettlements computes the read-only settlement of every event on the
// worker pool. Results keep the order of events.
func (e *Engine) eventSettlements(ctx context.Context, events []*models.Event) ([]*models.EventSettlement, error) {
	tasks := make([]pond.Result[*models.EventSettlement], len(events))
	for i, event := range events {
		tasks[i] = e.pool.SubmitErr(func() (*models.EventSettlement, error) {
			return e.readOnlySettlement(ctx, event)
		})
	}

	settlements := make([]*models.EventSettlement, len(events))
	var firstErr error
	for i, task := range tasks {
		s, err := task.Wait()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		settlements[i] = s
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return settlements, nil
}

// GetDebtPortfolio folds the settlements of every event the participant is a
// member of into totals, per-counterparty debts and per-event rows.
func (e *Engine) GetDebtPortfolio(ctx context.Context, participantID string) (*models.ParticipantDebtPortfolio, error) {
	participant, err := e.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, notFound(err, ErrParticipantNotFound, participantID)
	}

	events, err := e.store.ListEventsForParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of participant %s: %w", participantID, err)
	}
	settlements, err := e.eventSettlements(ctx, events)
	if err != nil {
		return nil, err
	}

	l := newLedger(participant, true)
	for _, s := range settlements {
		l.add(s)
	}
	return l.portfolio(), nil
}

// GetDebtSummaryForParticipant returns the participant's cross-event totals,
// or nil when the participant is unknown or belongs to no event.
func (e *Engine) GetDebtSummaryForParticipant(ctx context.Context, participantID string) (*models.ParticipantDebtSummary, error) {
	participant, err := e.store.GetParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	events, err := e.store.ListEventsForParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of participant %s: %w", participantID, err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	settlements, err := e.eventSettlements(ctx, events)
	if err != nil {
		return nil, err
	}

	l := newLedger(participant, false)
	for _, s := range settlements {
		l.add(s)
	}
	summary := l.summary()
	return &summary, nil
}

// GetDebtSummaries returns the summary of every participant that belongs to at
// least one event. Each event is computed once and shared by its members.
func (e *Engine) GetDebtSummaries(ctx context.Context) ([]*models.ParticipantDebtSummary, error) {
	participants, err := e.store.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	events, err := e.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	settlements, err := e.eventSettlements(ctx, events)
	if err != nil {
		return nil, err
	}

	ledgers := make(map[string]*ledger, len(participants))
	for _, p := range participants {
		ledgers[p.ID] = newLedger(p, false)
	}
	for _, s := range settlements {
		for _, b := range s.Balances {
			if l, ok := ledgers[b.ParticipantID]; ok {
				l.add(s)
			}
		}
	}

	summaries := make([]*models.ParticipantDebtSummary, 0, len(participants))
	for _, p := range participants {
		l := ledgers[p.ID]
		if l.eventCount == 0 {
			continue
		}
		summary := l.summary()
		summaries = append(summaries, &summary)
	}
	return summaries, nil
}

// ledger accumulates one participant's position across events.
type ledger struct {
	participant *models.Participant
	detailed    bool

	eventCount  int
	totalPaid   decimal.Decimal
	owed        decimal.Decimal
	owedToThem  decimal.Decimal
	breakdown   []models.EventBreakdown
	byCounter   map[string]*models.CounterpartyDebt
	counterpart []string
}

func newLedger(p *models.Participant, detailed bool) *ledger {
	return &ledger{
		participant: p,
		detailed:    detailed,
		byCounter:   make(map[string]*models.CounterpartyDebt),
	}
}

// add folds one event settlement in. Events the participant is not a
// member of are ignored.
func (l *ledger) add(s *models.EventSettlement) {
	if s == nil {
		return
	}
	b, ok := s.BalanceFor(l.participant.ID)
	if !ok {
		return
	}

	l.eventCount++
	l.totalPaid = l.totalPaid.Add(b.TotalPaid)
	switch {
	case b.Balance.IsPositive():
		l.owedToThem = l.owedToThem.Add(b.Balance)
	case b.Balance.IsNegative():
		l.owed = l.owed.Add(b.Balance.Neg())
	}

	if !l.detailed {
		return
	}

	l.breakdown = append(l.breakdown, models.EventBreakdown{
		EventID:    s.EventID,
		EventTitle: s.EventTitle,
		TotalPaid:  b.TotalPaid.Round(2),
		FairShare:  b.FairShare.Round(2),
		Balance:    b.Balance.Round(2),
		Role:       b.Role,
	})

	for _, t := range s.Transactions {
		var counterID, counterName string
		var amount decimal.Decimal
		switch l.participant.ID {
		case t.DebtorID:
			counterID, counterName, amount = t.CreditorID, t.CreditorName, t.Amount
		case t.CreditorID:
			counterID, counterName, amount = t.DebtorID, t.DebtorName, t.Amount.Neg()
		default:
			continue
		}

		debt, ok := l.byCounter[counterID]
		if !ok {
			debt = &models.CounterpartyDebt{
				CounterpartyID:    counterID,
				CounterpartyName:  counterName,
				NetAmount:         decimal.Zero,
				OutstandingAmount: decimal.Zero,
			}
			l.byCounter[counterID] = debt
			l.counterpart = append(l.counterpart, counterID)
		}
		debt.NetAmount = debt.NetAmount.Add(amount)
		if !t.IsSettled {
			debt.OutstandingAmount = debt.OutstandingAmount.Add(amount)
		}
		debt.Events = append(debt.Events, models.CounterpartyEventAmount{
			EventID:    s.EventID,
			EventTitle: s.EventTitle,
			Amount:     amount,
			IsSettled:  t.IsSettled,
		})
	}
}

func (l *ledger) summary() models.ParticipantDebtSummary {
	owed := l.owed.Round(2)
	owedToThem := l.owedToThem.Round(2)
	net := owedToThem.Sub(owed)
	return models.ParticipantDebtSummary{
		ParticipantID:   l.participant.ID,
		ParticipantName: l.participant.Name,
		TotalPaid:       l.totalPaid.Round(2),
		TotalOwed:       owed,
		TotalOwedToYou:  owedToThem,
		NetPosition:     net,
		Role:            calculator.Classify(net),
		EventCount:      l.eventCount,
	}
}

// portfolio orders counterparties by the size of the net debt, largest first.
func (l *ledger) portfolio() *models.ParticipantDebtPortfolio {
	debts := make([]models.CounterpartyDebt, 0, len(l.counterpart))
	for _, id := range l.counterpart {
		debts = append(debts, *l.byCounter[id])
	}
	sort.SliceStable(debts, func(i, j int) bool {
		cmp := debts[i].NetAmount.Abs().Cmp(debts[j].NetAmount.Abs())
		if cmp != 0 {
			return cmp > 0
		}
		return debts[i].CounterpartyID < debts[j].CounterpartyID
	})

	return &models.ParticipantDebtPortfolio{
		ParticipantDebtSummary: l.summary(),
		CounterpartyDebts:      debts,
		EventBreakdown:         l.breakdown,
	}
}
