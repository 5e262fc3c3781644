package settlement

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/messaging"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/mocks"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage/sqlite"
)

var testNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  storage.Store
	engine *Engine
	item   *models.Item
}

// newFixture builds an engine on a fresh SQLite file. A nil publisher means
// activity is dropped. wrap, when set, decorates the store given to the engine.
func newFixture(t *testing.T, publisher messaging.Publisher, wrap func(storage.Store) storage.Store) *fixture {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "kashta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).Return(time.Millisecond).AnyTimes()

	var store storage.Store = db
	if wrap != nil {
		store = wrap(db)
	}

	opts := []Option{
		WithClock(clock),
		WithAggregateWorkers(4),
		WithReconcileMaxElapsed(500 * time.Millisecond),
	}
	if publisher != nil {
		opts = append(opts, WithPublisher(publisher))
	}
	engine := NewEngine(store, opts...)
	t.Cleanup(engine.Close)

	f := &fixture{t: t, ctx: context.Background(), store: db, engine: engine}
	f.item, err = engine.CreateItem(f.ctx, "Firewood", "camping")
	require.NoError(t, err)
	return f
}

func (f *fixture) event(title string) *models.Event {
	f.t.Helper()
	event, err := f.engine.CreateEvent(f.ctx, title, "Liwa", nil)
	require.NoError(f.t, err)
	return event
}

func (f *fixture) member(eventID, name string) *models.Participant {
	f.t.Helper()
	p, err := f.engine.CreateParticipant(f.ctx, name)
	require.NoError(f.t, err)
	require.NoError(f.t, f.engine.AddParticipantToEvent(f.ctx, eventID, p.ID))
	return p
}

func (f *fixture) join(eventID string, p *models.Participant) {
	f.t.Helper()
	require.NoError(f.t, f.engine.AddParticipantToEvent(f.ctx, eventID, p.ID))
}

func (f *fixture) pay(eventID string, p *models.Participant, cost string) *models.Contribution {
	f.t.Helper()
	participantID := ""
	if p != nil {
		participantID = p.ID
	}
	c, err := f.engine.AddContribution(f.ctx, ContributionInput{
		EventID:       eventID,
		ItemID:        f.item.ID,
		ParticipantID: participantID,
		Quantity:      1,
		Cost:          d(cost),
	})
	require.NoError(f.t, err)
	return c
}

func findTx(s *models.EventSettlement, debtor, creditor *models.Participant) (models.SettlementTransaction, bool) {
	for _, tx := range s.Transactions {
		if tx.DebtorID == debtor.ID && tx.CreditorID == creditor.ID {
			return tx, true
		}
	}
	return models.SettlementTransaction{}, false
}

func TestGetEventSettlement_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		costs [3]string
		want  map[[2]int]string
	}{
		{
			name:  "one payer",
			costs: [3]string{"30", "0", "0"},
			want:  map[[2]int]string{{1, 0}: "10", {2, 0}: "10"},
		},
		{
			name:  "two payers",
			costs: [3]string{"50", "10", "0"},
			want:  map[[2]int]string{{2, 0}: "20", {1, 0}: "10"},
		},
		{
			name:  "uneven split",
			costs: [3]string{"100", "0", "0"},
			want:  map[[2]int]string{{1, 0}: "33.33", {2, 0}: "33.33"},
		},
		{
			name:  "everyone paid the same",
			costs: [3]string{"20", "20", "20"},
			want:  map[[2]int]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			event := f.event("Desert camp")
			people := []*models.Participant{
				f.member(event.ID, "Ahmed"),
				f.member(event.ID, "Badr"),
				f.member(event.ID, "Chadi"),
			}
			for i, cost := range tt.costs {
				f.pay(event.ID, people[i], cost)
			}

			s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
			require.NoError(t, err)

			assert.Equal(t, "Desert camp", s.EventTitle)
			assert.Equal(t, 3, s.ParticipantCount)
			require.Len(t, s.Transactions, len(tt.want))
			for pair, amount := range tt.want {
				tx, ok := findTx(s, people[pair[0]], people[pair[1]])
				require.True(t, ok, "missing transfer %s -> %s", people[pair[0]].Name, people[pair[1]].Name)
				assert.True(t, d(amount).Equal(tx.Amount), "amount = %s, want %s", tx.Amount, amount)
				assert.NotEmpty(t, tx.ID)
				assert.Equal(t, people[pair[0]].Name, tx.DebtorName)
				assert.Equal(t, people[pair[1]].Name, tx.CreditorName)
				assert.False(t, tx.IsSettled)
				assert.Nil(t, tx.SettledAt)
			}

			sum := decimal.Zero
			for _, b := range s.Balances {
				sum = sum.Add(b.Balance)
			}
			assert.True(t, sum.Abs().LessThan(d("0.01")), "balances sum to %s", sum)
		})
	}
}

func TestGetEventSettlement_Costs(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("")
	a := f.member(event.ID, "Ahmed")
	f.member(event.ID, "Badr")

	f.pay(event.ID, a, "40")
	f.pay(event.ID, nil, "15.50")

	s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)

	assert.True(t, d("55.50").Equal(s.TotalSpent))
	assert.True(t, d("40").Equal(s.AssignedCosts))
	assert.True(t, d("15.50").Equal(s.UnassignedCosts))
	assert.True(t, d("20").Equal(s.FairShare))
	assert.Equal(t, "Liwa - Mar 14, 2026", s.EventTitle)
}

func TestGetEventSettlement_EmptyAndUnknown(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Nobody yet")

	s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.ParticipantCount)
	assert.True(t, s.FairShare.IsZero())
	assert.Empty(t, s.Balances)
	assert.Empty(t, s.Transactions)

	_, err = f.engine.GetEventSettlement(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetEventSettlement_Idempotent(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Sealine")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	f.member(event.ID, "Chadi")
	f.pay(event.ID, a, "45")
	f.pay(event.ID, b, "15")

	first, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first.Transactions)
	_, err = f.engine.ToggleSettlementStatus(f.ctx, event.ID, first.Transactions[0].DebtorID, first.Transactions[0].CreditorID)
	require.NoError(t, err)

	second, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	third, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)

	assert.Equal(t, second.Transactions, third.Transactions)
	assert.True(t, third.Transactions[0].IsSettled)

	records, err := f.store.GetSettlementRecords(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, records, len(third.Transactions))
}

func TestGetEventSettlement_LeavesEventUntouched(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Jebel Hafeet")
	a := f.member(event.ID, "Ahmed")
	f.member(event.ID, "Badr")
	f.pay(event.ID, a, "20")

	before, err := f.engine.GetEvent(f.ctx, event.ID)
	require.NoError(t, err)

	_, err = f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)

	after, err := f.engine.GetEvent(f.ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt), "updatedAt moved from %v to %v", before.UpdatedAt, after.UpdatedAt)
}

func TestToggleSettlementStatus_RoundTrip(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Jebel Hafeet")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	f.pay(event.ID, a, "30")

	_, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)

	rec, err := f.engine.ToggleSettlementStatus(f.ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsSettled)
	require.NotNil(t, rec.SettledAt)
	assert.True(t, testNow.Equal(*rec.SettledAt))
	assert.True(t, d("15").Equal(rec.Amount))

	rec, err = f.engine.ToggleSettlementStatus(f.ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, rec.IsSettled)
	assert.Nil(t, rec.SettledAt)

	s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	tx, ok := findTx(s, b, a)
	require.True(t, ok)
	assert.False(t, tx.IsSettled)
	assert.Nil(t, tx.SettledAt)

	entries, err := f.engine.ListActivityLog(f.ctx, event.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActivityCancellation, entries[0].Action)
	assert.Equal(t, models.ActivityPayment, entries[1].Action)
	assert.Equal(t, "Badr", entries[1].DebtorName)
	assert.Equal(t, "Ahmed", entries[1].CreditorName)
	assert.Equal(t, "Jebel Hafeet", entries[1].EventTitle)
}

func TestToggleSettlementStatus_NotFound(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Hatta")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	f.pay(event.ID, a, "30")

	tests := []struct {
		name     string
		eventID  string
		debtor   string
		creditor string
		wantErr  error
	}{
		{"unknown event", "missing", b.ID, a.ID, ErrEventNotFound},
		{"reversed pair", event.ID, a.ID, b.ID, ErrSettlementNotFound},
		{"unknown participant", event.ID, "ghost", a.ID, ErrSettlementNotFound},
		{"missing debtor", event.ID, "", a.ID, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.ToggleSettlementStatus(f.ctx, tt.eventID, tt.debtor, tt.creditor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestToggleSettlementStatus_Publishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	f := newFixture(t, publisher, nil)

	event := f.event("Fossil Rock")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	f.pay(event.ID, a, "50")
	_, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)

	gomock.InOrder(
		publisher.EXPECT().
			PublishSettlementActivity(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, activity *models.SettlementActivity) error {
				assert.Equal(t, event.ID, activity.EventID)
				assert.Equal(t, models.ActivityPayment, activity.Action)
				assert.Equal(t, "Badr", activity.DebtorName)
				assert.True(t, d("25").Equal(activity.Amount))
				return nil
			}),
		publisher.EXPECT().
			PublishSettlementActivity(gomock.Any(), gomock.Any()).
			Return(errors.New("nats: no responders available for request")),
	)

	ctx := WithActor(f.ctx, "user-1")
	rec, err := f.engine.ToggleSettlementStatus(ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsSettled)

	rec, err = f.engine.ToggleSettlementStatus(ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err, "publish failures never fail the toggle")
	assert.False(t, rec.IsSettled)

	entries, err := f.engine.ListActivityLog(f.ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].ActorID)
}

type failingAuditStore struct {
	storage.Store
}

func (failingAuditStore) AppendActivityLog(context.Context, *models.ActivityLogEntry) error {
	return errors.New("disk I/O error")
}

func TestToggleSettlementStatus_AuditFailureIsIgnored(t *testing.T) {
	f := newFixture(t, nil, func(s storage.Store) storage.Store { return failingAuditStore{s} })
	event := f.event("Al Qudra")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	f.pay(event.ID, a, "20")
	_, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)

	rec, err := f.engine.ToggleSettlementStatus(f.ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsSettled)

	stored, err := f.store.GetSettlementRecords(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsSettled)
}

func TestSettledFlagSurvivesCostEdits(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Wadi Shawka")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	c := f.member(event.ID, "Chadi")
	tent := f.pay(event.ID, a, "30")
	f.pay(event.ID, b, "0")
	f.pay(event.ID, c, "0")

	_, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	_, err = f.engine.ToggleSettlementStatus(f.ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err)

	// Unassigned items do not change any transfer.
	f.pay(event.ID, nil, "12")
	s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	tx, ok := findTx(s, b, a)
	require.True(t, ok)
	assert.True(t, tx.IsSettled)
	assert.NotNil(t, tx.SettledAt)
	assert.True(t, d("10").Equal(tx.Amount))

	// A bigger bill changes the amount but not the flag.
	cost := d("36")
	_, err = f.engine.UpdateContribution(f.ctx, tent.ID, nil, &cost)
	require.NoError(t, err)
	s, err = f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	tx, ok = findTx(s, b, a)
	require.True(t, ok)
	assert.True(t, tx.IsSettled)
	assert.True(t, d("12").Equal(tx.Amount))

	other, ok := findTx(s, c, a)
	require.True(t, ok)
	assert.False(t, other.IsSettled)
}

func TestRemoveParticipantPrunesTransfers(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Empty Quarter")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	c := f.member(event.ID, "Chadi")
	f.pay(event.ID, a, "30")
	f.pay(event.ID, c, "6")

	s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, s.Transactions, 2)

	require.NoError(t, f.engine.RemoveParticipantFromEvent(f.ctx, event.ID, c.ID))

	records, err := f.store.GetSettlementRecords(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, b.ID, records[0].DebtorID)
	assert.Equal(t, a.ID, records[0].CreditorID)
	assert.True(t, d("15").Equal(records[0].Amount))

	contributions, err := f.engine.ListContributions(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, contributions, 1)

	err = f.engine.RemoveParticipantFromEvent(f.ctx, event.ID, c.ID)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	err = f.engine.RemoveParticipantFromEvent(f.ctx, "no-such-event", a.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NotErrorIs(t, err, ErrParticipantNotFound)
}

func TestAddContribution_Validation(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Validation")
	a := f.member(event.ID, "Ahmed")
	outsider, err := f.engine.CreateParticipant(f.ctx, "Outsider")
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      ContributionInput
		wantErr error
	}{
		{"negative quantity", ContributionInput{EventID: event.ID, ItemID: f.item.ID, Quantity: -1, Cost: d("1")}, ErrInvalidArgument},
		{"negative cost", ContributionInput{EventID: event.ID, ItemID: f.item.ID, Cost: d("-0.01")}, ErrInvalidArgument},
		{"payer not a member", ContributionInput{EventID: event.ID, ItemID: f.item.ID, ParticipantID: outsider.ID, Cost: d("5")}, ErrInvalidArgument},
		{"unknown event", ContributionInput{EventID: "missing", ItemID: f.item.ID, Cost: d("5")}, ErrEventNotFound},
		{"unknown item", ContributionInput{EventID: event.ID, ItemID: "missing", Cost: d("5")}, ErrItemNotFound},
		{"sub-cent cost", ContributionInput{EventID: event.ID, ItemID: f.item.ID, ParticipantID: a.ID, Cost: d("10.005")}, ErrInvalidArgument},
		{"default quantity", ContributionInput{EventID: event.ID, ItemID: f.item.ID, ParticipantID: a.ID, Cost: d("5")}, nil},
		{"trailing zeros are exact", ContributionInput{EventID: event.ID, ItemID: f.item.ID, ParticipantID: a.ID, Cost: d("2.500")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.engine.AddContribution(f.ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, c.Quantity)
		})
	}
}

func TestAssignAndUnassignContribution(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Assign")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	c := f.pay(event.ID, nil, "40")

	s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Transactions)

	_, err = f.engine.AssignContribution(f.ctx, c.ID, a.ID)
	require.NoError(t, err)
	s, err = f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	tx, ok := findTx(s, b, a)
	require.True(t, ok)
	assert.True(t, d("20").Equal(tx.Amount))

	_, err = f.engine.UnassignContribution(f.ctx, c.ID)
	require.NoError(t, err)
	records, err := f.store.GetSettlementRecords(f.ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.engine.AssignContribution(f.ctx, "missing", a.ID)
	assert.ErrorIs(t, err, ErrContributionNotFound)

	quantity := 0
	_, err = f.engine.UpdateContribution(f.ctx, c.ID, &quantity, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	subCent := d("19.999")
	_, err = f.engine.UpdateContribution(f.ctx, c.ID, nil, &subCent)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, f.engine.DeleteContribution(f.ctx, c.ID))
	assert.ErrorIs(t, f.engine.DeleteContribution(f.ctx, c.ID), ErrContributionNotFound)
}

func TestAddParticipantToEvent_Duplicate(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Dup")
	a := f.member(event.ID, "Ahmed")

	err := f.engine.AddParticipantToEvent(f.ctx, event.ID, a.ID)
	assert.ErrorIs(t, err, storage.ErrConflict)

	err = f.engine.AddParticipantToEvent(f.ctx, event.ID, "ghost")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestDeleteEventKeepsActivityLog(t *testing.T) {
	f := newFixture(t, nil, nil)
	event := f.event("Short trip")
	a := f.member(event.ID, "Ahmed")
	b := f.member(event.ID, "Badr")
	f.pay(event.ID, a, "10")
	_, err := f.engine.GetEventSettlement(f.ctx, event.ID)
	require.NoError(t, err)
	_, err = f.engine.ToggleSettlementStatus(f.ctx, event.ID, b.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteEvent(f.ctx, event.ID))
	assert.ErrorIs(t, f.engine.DeleteEvent(f.ctx, event.ID), ErrEventNotFound)

	entries, err := f.engine.ListActivityLog(f.ctx, event.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Short trip", entries[0].EventTitle)
}

type flakyStore struct {
	storage.Store
	failures atomic.Int32
	err      error
}

func (s *flakyStore) WithEventSettlementTx(ctx context.Context, eventID string, fn func(tx storage.SettlementTx) error) error {
	if s.failures.Add(-1) >= 0 {
		return s.err
	}
	return s.Store.WithEventSettlementTx(ctx, eventID, fn)
}

func TestReconcileRetries(t *testing.T) {
	busy := &storage.RetryableError{Op: "settlement transaction", Err: errors.New("database is locked")}

	tests := []struct {
		name     string
		failures int32
		err      error
		wantErr  bool
		retrying bool
	}{
		{"recovers after contention", 2, busy, false, true},
		{"gives up when contention persists", 1000, busy, true, true},
		{"does not retry permanent errors", 1, errors.New("constraint failed"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flaky *flakyStore
			f := newFixture(t, nil, func(s storage.Store) storage.Store {
				flaky = &flakyStore{Store: s, err: tt.err}
				return flaky
			})
			event := f.event("Retry")
			a := f.member(event.ID, "Ahmed")
			f.member(event.ID, "Badr")
			f.pay(event.ID, a, "10")

			flaky.failures.Store(tt.failures)
			s, err := f.engine.GetEventSettlement(f.ctx, event.ID)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, s.Transactions, 1)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.retrying, storage.IsRetryable(err))
		})
	}
}

func TestWithActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", ActorFrom(ctx))
	assert.Equal(t, ctx, WithActor(ctx, ""))
	assert.Equal(t, "user-7", ActorFrom(WithActor(ctx, "user-7")))
}
