package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/apierrors"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/dto"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/auth"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/middleware"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage/sqlite"
)

const testAdminKey = "kashta-admin-key-for-tests"

// testAuthInterceptor returns a Connect interceptor that sets a test user ID in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx = context.WithValue(ctx, middleware.UserIDKey, "Alice")
			return next(ctx, req)
		}
	}
}

// adminKeyHeader returns a client interceptor sending key in the admin key header.
func adminKeyHeader(key string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set(auth.AdminKeyHeader, key)
			return next(ctx, req)
		}
	}
}

// setupTestServer creates a test server backed by a temporary SQLite database.
// GetDebtSummaries is guarded by testAdminKey.
func setupTestServer(t *testing.T, clientOpts ...connect.ClientOption) *SettlementServiceClient {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "kashta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine := settlement.NewEngine(store)
	t.Cleanup(engine.Close)

	hash, err := auth.HashAdminKey(testAdminKey)
	require.NoError(t, err)

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		testAuthInterceptor(),
		middleware.RequireAdminKey(auth.NewAdminKeyVerifier(hash), GetDebtSummariesProcedure),
	)
	path, handler := NewSettlementServiceHandler(NewSettlementService(engine), interceptors)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewSettlementServiceClient(http.DefaultClient, server.URL, clientOpts...)
}

// trip seeds an event where Ahmed paid 30 for three people.
type trip struct {
	event   *dto.EventResponse
	members map[string]*dto.ParticipantResponse
}

func seedTrip(t *testing.T, client *SettlementServiceClient) *trip {
	t.Helper()
	ctx := context.Background()

	event, err := client.CreateEvent(ctx, &dto.CreateEventRequest{Location: "Liwa"})
	require.NoError(t, err)

	tr := &trip{event: event, members: map[string]*dto.ParticipantResponse{}}
	for _, name := range []string{"Ahmed", "Badr", "Chadi"} {
		p, err := client.CreateParticipant(ctx, &dto.CreateParticipantRequest{Name: name})
		require.NoError(t, err)
		require.NoError(t, client.AddParticipantToEvent(ctx, &dto.EventParticipantRequest{EventID: event.ID, ParticipantID: p.ID}))
		tr.members[name] = p
	}

	item, err := client.CreateItem(ctx, &dto.CreateItemRequest{Name: "Firewood", Category: "camping"})
	require.NoError(t, err)

	_, err = client.AddContribution(ctx, &dto.AddContributionRequest{
		EventID:       event.ID,
		ItemID:        item.ID,
		ParticipantID: tr.members["Ahmed"].ID,
		Quantity:      3,
		Cost:          "10",
	})
	require.NoError(t, err)
	return tr
}

func connectCode(err error) connect.Code {
	return connect.CodeOf(err)
}

func TestGetEventSettlement(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)

	resp, err := client.GetEventSettlement(context.Background(), &dto.EventRequest{EventID: tr.event.ID})
	require.NoError(t, err)

	assert.Equal(t, "30.00", resp.TotalSpent)
	assert.Equal(t, "10.00", resp.FairShare)
	assert.Equal(t, 3, resp.ParticipantCount)
	require.Len(t, resp.Transactions, 2)
	for _, tx := range resp.Transactions {
		assert.Equal(t, tr.members["Ahmed"].ID, tx.CreditorID)
		assert.Equal(t, "Ahmed", tx.CreditorName)
		assert.Equal(t, "10.00", tx.Amount)
		assert.False(t, tx.IsSettled)
		assert.Nil(t, tx.SettledAt)
	}
}

func TestGetEventSettlement_Errors(t *testing.T) {
	client := setupTestServer(t)

	_, err := client.GetEventSettlement(context.Background(), &dto.EventRequest{EventID: "missing"})
	assert.Equal(t, connect.CodeNotFound, connectCode(err))

	_, err = client.GetEventSettlement(context.Background(), &dto.EventRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connectCode(err))
}

func TestToggleSettlementStatus(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)
	ctx := context.Background()

	req := &dto.ToggleSettlementRequest{
		EventID:    tr.event.ID,
		DebtorID:   tr.members["Badr"].ID,
		CreditorID: tr.members["Ahmed"].ID,
	}

	rec, err := client.ToggleSettlementStatus(ctx, req)
	require.NoError(t, err)
	assert.True(t, rec.IsSettled)
	assert.NotNil(t, rec.SettledAt)
	assert.Equal(t, "10.00", rec.Amount)

	entries, err := client.ListActivityLog(ctx, &dto.ListActivityLogRequest{EventID: tr.event.ID})
	require.NoError(t, err)
	require.Len(t, entries.Items, 1)
	assert.Equal(t, "Alice", entries.Items[0].ActorID)
	assert.Equal(t, "Badr", entries.Items[0].DebtorName)

	rec, err = client.ToggleSettlementStatus(ctx, req)
	require.NoError(t, err)
	assert.False(t, rec.IsSettled)
	assert.Nil(t, rec.SettledAt)
}

func TestToggleSettlementStatus_Errors(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)

	tests := []struct {
		name string
		req  *dto.ToggleSettlementRequest
		want connect.Code
	}{
		{"missing debtor", &dto.ToggleSettlementRequest{EventID: tr.event.ID, CreditorID: "a"}, connect.CodeInvalidArgument},
		{"unknown event", &dto.ToggleSettlementRequest{EventID: "missing", DebtorID: "b", CreditorID: "a"}, connect.CodeNotFound},
		{
			"no such transfer",
			&dto.ToggleSettlementRequest{EventID: tr.event.ID, DebtorID: tr.members["Ahmed"].ID, CreditorID: tr.members["Badr"].ID},
			connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ToggleSettlementStatus(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, connectCode(err))
		})
	}
}

func TestGetDebtSummaryForParticipant(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)
	ctx := context.Background()

	resp, err := client.GetDebtSummaryForParticipant(ctx, &dto.ParticipantRequest{ParticipantID: tr.members["Badr"].ID})
	require.NoError(t, err)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, "-10.00", resp.Summary.NetPosition)
	assert.Equal(t, "debtor", string(resp.Summary.Role))

	resp, err = client.GetDebtSummaryForParticipant(ctx, &dto.ParticipantRequest{ParticipantID: "ghost"})
	require.NoError(t, err)
	assert.Nil(t, resp.Summary)
}

func TestGetDebtPortfolio(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)

	resp, err := client.GetDebtPortfolio(context.Background(), &dto.ParticipantRequest{ParticipantID: tr.members["Ahmed"].ID})
	require.NoError(t, err)
	assert.Equal(t, "20.00", resp.NetPosition)
	assert.Len(t, resp.CounterpartyDebts, 2)
	assert.Len(t, resp.EventBreakdown, 1)

	_, err = client.GetDebtPortfolio(context.Background(), &dto.ParticipantRequest{ParticipantID: "ghost"})
	assert.Equal(t, connect.CodeNotFound, connectCode(err))
}

func TestGetDebtSummaries_AdminKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want connect.Code
	}{
		{"valid key", testAdminKey, 0},
		{"wrong key", "not-the-admin-key", connect.CodePermissionDenied},
		{"missing key", "", connect.CodePermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []connect.ClientOption
			if tt.key != "" {
				opts = append(opts, connect.WithInterceptors(adminKeyHeader(tt.key)))
			}
			client := setupTestServer(t, opts...)
			seedTrip(t, client)

			resp, err := client.GetDebtSummaries(context.Background())
			if tt.want != 0 {
				assert.Equal(t, tt.want, connectCode(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Items, 3)
		})
	}
}

func TestContributionLifecycle(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)
	ctx := context.Background()

	list, err := client.ListContributions(ctx, &dto.EventRequest{EventID: tr.event.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	contribution := list.Items[0]
	assert.Equal(t, "30.00", contribution.Amount)

	unassigned, err := client.UnassignContribution(ctx, &dto.ContributionRequest{ContributionID: contribution.ID})
	require.NoError(t, err)
	assert.Empty(t, unassigned.ParticipantID)

	s, err := client.GetEventSettlement(ctx, &dto.EventRequest{EventID: tr.event.ID})
	require.NoError(t, err)
	assert.Equal(t, "30.00", s.UnassignedCosts)
	assert.Empty(t, s.Transactions)

	assigned, err := client.AssignContribution(ctx, &dto.AssignContributionRequest{
		ContributionID: contribution.ID,
		ParticipantID:  tr.members["Chadi"].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, tr.members["Chadi"].ID, assigned.ParticipantID)

	cost := "20"
	updated, err := client.UpdateContribution(ctx, &dto.UpdateContributionRequest{ContributionID: contribution.ID, Cost: &cost})
	require.NoError(t, err)
	assert.Equal(t, "60.00", updated.Amount)

	_, err = client.UpdateContribution(ctx, &dto.UpdateContributionRequest{ContributionID: contribution.ID})
	assert.Equal(t, connect.CodeInvalidArgument, connectCode(err))

	require.NoError(t, client.DeleteContribution(ctx, &dto.ContributionRequest{ContributionID: contribution.ID}))
	err = client.DeleteContribution(ctx, &dto.ContributionRequest{ContributionID: contribution.ID})
	assert.Equal(t, connect.CodeNotFound, connectCode(err))
}

func TestParticipantMembership(t *testing.T) {
	client := setupTestServer(t)
	tr := seedTrip(t, client)
	ctx := context.Background()
	badr := &dto.EventParticipantRequest{EventID: tr.event.ID, ParticipantID: tr.members["Badr"].ID}

	err := client.AddParticipantToEvent(ctx, badr)
	assert.Equal(t, connect.CodeAlreadyExists, connectCode(err))

	require.NoError(t, client.RemoveParticipantFromEvent(ctx, badr))

	members, err := client.ListEventParticipants(ctx, &dto.EventRequest{EventID: tr.event.ID})
	require.NoError(t, err)
	assert.Len(t, members.Items, 2)

	s, err := client.GetEventSettlement(ctx, &dto.EventRequest{EventID: tr.event.ID})
	require.NoError(t, err)
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, tr.members["Chadi"].ID, s.Transactions[0].DebtorID)
	assert.Equal(t, "15.00", s.Transactions[0].Amount)
}

func TestEventsAndCatalog(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	event, err := client.CreateEvent(ctx, &dto.CreateEventRequest{Title: "  Desert night "})
	require.NoError(t, err)
	assert.Equal(t, "Desert night", event.Title)

	got, err := client.GetEvent(ctx, &dto.EventRequest{EventID: event.ID})
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	events, err := client.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events.Items, 1)

	_, err = client.CreateParticipant(ctx, &dto.CreateParticipantRequest{Name: " "})
	assert.Equal(t, connect.CodeInvalidArgument, connectCode(err))

	p, err := client.CreateParticipant(ctx, &dto.CreateParticipantRequest{Name: "Dana"})
	require.NoError(t, err)
	gotP, err := client.GetParticipant(ctx, &dto.ParticipantRequest{ParticipantID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dana", gotP.Name)

	participants, err := client.ListParticipants(ctx)
	require.NoError(t, err)
	assert.Len(t, participants.Items, 1)

	_, err = client.CreateItem(ctx, &dto.CreateItemRequest{Name: "Charcoal"})
	require.NoError(t, err)
	items, err := client.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items.Items, 1)

	require.NoError(t, client.DeleteEvent(ctx, &dto.EventRequest{EventID: event.ID}))
	_, err = client.GetEvent(ctx, &dto.EventRequest{EventID: event.ID})
	assert.Equal(t, connect.CodeNotFound, connectCode(err))
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"validation", apierrors.NewValidationError("eventId is required"), connect.CodeInvalidArgument},
		{"invalid argument", fmt.Errorf("%w: quantity", settlement.ErrInvalidArgument), connect.CodeInvalidArgument},
		{"not found", settlement.ErrEventNotFound, connect.CodeNotFound},
		{"conflict", fmt.Errorf("add: %w", storage.ErrConflict), connect.CodeAlreadyExists},
		{"retryable", &storage.RetryableError{Op: "reconcile", Err: errors.New("busy")}, connect.CodeUnavailable},
		{"canceled", context.Canceled, connect.CodeCanceled},
		{"internal", errors.New("boom"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connect.CodeOf(toConnectError(tt.err)))
		})
	}
}
