package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/apierrors"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/dto"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/auth"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/metrics"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/middleware"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage/sqlite"
)

const testAdminKey = "kashta-admin-key-for-tests"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, mw ...gin.HandlerFunc) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "kashta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	engine := settlement.NewEngine(store, settlement.WithMetrics(metrics.New(reg)))
	t.Cleanup(engine.Close)

	hash, err := auth.HashAdminKey(testAdminKey)
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.GinLogger(), middleware.GinRecovery())
	router.Use(mw...)
	SetupRoutes(router, NewHandler(engine), auth.NewAdminKeyVerifier(hash), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seed creates an event where Ahmed paid 50 and Badr 10 for three people.
func (s *testServer) seed() (event dto.EventResponse, people map[string]dto.ParticipantResponse) {
	t := s.t
	w := s.do(http.MethodPost, "/api/events", dto.CreateEventRequest{Location: "Sealine"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	event = decode[dto.EventResponse](t, w)

	w = s.do(http.MethodPost, "/api/items", dto.CreateItemRequest{Name: "Water"})
	require.Equal(t, http.StatusCreated, w.Code)
	item := decode[dto.ItemResponse](t, w)

	people = map[string]dto.ParticipantResponse{}
	for _, name := range []string{"Ahmed", "Badr", "Chadi"} {
		w = s.do(http.MethodPost, "/api/participants", dto.CreateParticipantRequest{Name: name})
		require.Equal(t, http.StatusCreated, w.Code)
		people[name] = decode[dto.ParticipantResponse](t, w)

		w = s.do(http.MethodPost, "/api/events/"+event.ID+"/participants", dto.EventParticipantRequest{ParticipantID: people[name].ID})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	}

	for name, cost := range map[string]string{"Ahmed": "50", "Badr": "10"} {
		w = s.do(http.MethodPost, "/api/events/"+event.ID+"/contributions", dto.AddContributionRequest{
			ItemID:        item.ID,
			ParticipantID: people[name].ID,
			Cost:          cost,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	return event, people
}

func TestGetEventSettlement(t *testing.T) {
	s := newTestServer(t)
	event, people := s.seed()

	w := s.do(http.MethodGet, "/api/events/"+event.ID+"/settlement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.EventSettlementResponse](t, w)

	assert.Equal(t, "60.00", got.TotalSpent)
	assert.Equal(t, "20.00", got.FairShare)
	require.Len(t, got.Transactions, 2)

	amounts := map[string]string{}
	for _, tx := range got.Transactions {
		assert.Equal(t, people["Ahmed"].ID, tx.CreditorID)
		amounts[tx.DebtorName] = tx.Amount
	}
	assert.Equal(t, map[string]string{"Chadi": "20.00", "Badr": "10.00"}, amounts)

	w = s.do(http.MethodGet, "/api/events/missing/settlement", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrCodeNotFound, decode[apierrors.APIError](t, w).Code)
}

func TestToggleSettlementStatus(t *testing.T) {
	s := newTestServer(t)
	event, people := s.seed()
	path := "/api/events/" + event.ID + "/settlement/toggle"
	body := map[string]string{"debtorId": people["Badr"].ID, "creditorId": people["Ahmed"].ID}

	w := s.do(http.MethodPost, path, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[dto.SettlementRecordResponse](t, w)
	assert.True(t, rec.IsSettled)
	assert.NotNil(t, rec.SettledAt)

	w = s.do(http.MethodGet, "/api/events/"+event.ID+"/activity?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	log := decode[dto.ListResponse[dto.ActivityLogResponse]](t, w)
	require.Len(t, log.Items, 1)
	assert.Equal(t, "payment", string(log.Items[0].Action))
	assert.Equal(t, "10.00", log.Items[0].Amount)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"no transfer for pair", path, map[string]string{"debtorId": people["Ahmed"].ID, "creditorId": people["Badr"].ID}, http.StatusNotFound},
		{"missing creditor", path, map[string]string{"debtorId": people["Badr"].ID}, http.StatusBadRequest},
		{"malformed body", path, "not an object", http.StatusBadRequest},
		{"unknown event", "/api/events/missing/settlement/toggle", body, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestGetDebtSummary(t *testing.T) {
	s := newTestServer(t)
	_, people := s.seed()

	w := s.do(http.MethodGet, "/api/participants/"+people["Chadi"].ID+"/debt-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[dto.DebtSummaryResponse](t, w)
	assert.Equal(t, "-20.00", summary.NetPosition)
	assert.Equal(t, 1, summary.EventCount)

	w = s.do(http.MethodGet, "/api/participants/ghost/debt-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestGetDebtPortfolio(t *testing.T) {
	s := newTestServer(t)
	_, people := s.seed()

	w := s.do(http.MethodGet, "/api/participants/"+people["Ahmed"].ID+"/debt-portfolio", nil)
	require.Equal(t, http.StatusOK, w.Code)
	portfolio := decode[dto.DebtPortfolioResponse](t, w)
	assert.Equal(t, "30.00", portfolio.NetPosition)
	assert.Equal(t, "creditor", string(portfolio.Role))
	require.Len(t, portfolio.CounterpartyDebts, 2)
	assert.Equal(t, "Chadi", portfolio.CounterpartyDebts[0].CounterpartyName, "largest debt first")

	w = s.do(http.MethodGet, "/api/participants/ghost/debt-portfolio", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDebtSummaries_AdminKey(t *testing.T) {
	s := newTestServer(t)
	s.seed()

	w := s.do(http.MethodGet, "/api/debts/summaries", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/debts/summaries", nil, auth.AdminKeyHeader, testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	summaries := decode[[]dto.DebtSummaryResponse](t, w)
	assert.Len(t, summaries, 3)
}

func TestContributionRoutes(t *testing.T) {
	s := newTestServer(t)
	event, people := s.seed()

	w := s.do(http.MethodGet, "/api/events/"+event.ID+"/contributions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.ListResponse[dto.ContributionResponse]](t, w)
	require.Len(t, list.Items, 2)

	var badrs dto.ContributionResponse
	for _, c := range list.Items {
		if c.ParticipantID == people["Badr"].ID {
			badrs = c
		}
	}
	require.NotEmpty(t, badrs.ID)

	w = s.do(http.MethodDelete, "/api/contributions/"+badrs.ID+"/assignee", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.ContributionResponse](t, w).ParticipantID)

	w = s.do(http.MethodPut, "/api/contributions/"+badrs.ID+"/assignee", dto.AssignContributionRequest{ParticipantID: "ghost"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "non-members cannot pay")

	w = s.do(http.MethodPut, "/api/contributions/"+badrs.ID+"/assignee", dto.AssignContributionRequest{ParticipantID: people["Chadi"].ID})
	require.Equal(t, http.StatusOK, w.Code)

	quantity := 0
	w = s.do(http.MethodPatch, "/api/contributions/"+badrs.ID, dto.UpdateContributionRequest{Quantity: &quantity})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/contributions/"+badrs.ID, map[string]any{"cost": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/contributions/"+badrs.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodDelete, "/api/contributions/"+badrs.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMembershipRoutes(t *testing.T) {
	s := newTestServer(t)
	event, people := s.seed()

	w := s.do(http.MethodPost, "/api/events/"+event.ID+"/participants", dto.EventParticipantRequest{ParticipantID: people["Badr"].ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodDelete, "/api/events/"+event.ID+"/participants/"+people["Badr"].ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/events/"+event.ID+"/participants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.ListResponse[dto.ParticipantResponse]](t, w).Items, 2)

	w = s.do(http.MethodGet, "/api/events/"+event.ID+"/settlement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.EventSettlementResponse](t, w)
	for _, tx := range got.Transactions {
		assert.NotEqual(t, people["Badr"].ID, tx.DebtorID)
		assert.NotEqual(t, people["Badr"].ID, tx.CreditorID)
	}
}

func TestEventRoutes(t *testing.T) {
	s := newTestServer(t)
	event, _ := s.seed()

	w := s.do(http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.ListResponse[dto.EventResponse]](t, w).Items, 1)

	w = s.do(http.MethodGet, "/api/events/"+event.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[dto.EventResponse](t, w).Title, "Sealine - ")

	w = s.do(http.MethodPost, "/api/participants", dto.CreateParticipantRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrCodeValidationFailed, decode[apierrors.APIError](t, w).Code)

	w = s.do(http.MethodGet, "/api/activity?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/events/"+event.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/events/"+event.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	event, _ := s.seed()

	w := s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"kashta-settlement"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/events/"+event.ID+"/settlement", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kashta_settlement_recomputes_total")
}

func TestToggleRecordsActor(t *testing.T) {
	s := newTestServer(t, func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), middleware.UserIDKey, "user-7")
		c.Request = c.Request.WithContext(ctx)
	})
	event, people := s.seed()

	w := s.do(http.MethodPost, "/api/events/"+event.ID+"/settlement/toggle",
		map[string]string{"debtorId": people["Chadi"].ID, "creditorId": people["Ahmed"].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/activity?eventId="+event.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	log := decode[dto.ListResponse[dto.ActivityLogResponse]](t, w)
	require.Len(t, log.Items, 1)
	assert.Equal(t, "user-7", log.Items[0].ActorID)
}
