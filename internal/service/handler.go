package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/dto"
)

// SettlementServiceName is the fully-qualified name of the settlement service.
const SettlementServiceName = "kashta.v1.SettlementService"

// Procedure paths of the settlement service.
const (
	GetEventSettlementProcedure           = "/" + SettlementServiceName + "/GetEventSettlement"
	ToggleSettlementStatusProcedure       = "/" + SettlementServiceName + "/ToggleSettlementStatus"
	GetDebtSummaryForParticipantProcedure = "/" + SettlementServiceName + "/GetDebtSummaryForParticipant"
	GetDebtPortfolioProcedure             = "/" + SettlementServiceName + "/GetDebtPortfolio"
	GetDebtSummariesProcedure             = "/" + SettlementServiceName + "/GetDebtSummaries"

	CreateEventProcedure                = "/" + SettlementServiceName + "/CreateEvent"
	GetEventProcedure                   = "/" + SettlementServiceName + "/GetEvent"
	ListEventsProcedure                 = "/" + SettlementServiceName + "/ListEvents"
	DeleteEventProcedure                = "/" + SettlementServiceName + "/DeleteEvent"
	CreateParticipantProcedure          = "/" + SettlementServiceName + "/CreateParticipant"
	GetParticipantProcedure             = "/" + SettlementServiceName + "/GetParticipant"
	ListParticipantsProcedure           = "/" + SettlementServiceName + "/ListParticipants"
	ListEventParticipantsProcedure      = "/" + SettlementServiceName + "/ListEventParticipants"
	AddParticipantToEventProcedure      = "/" + SettlementServiceName + "/AddParticipantToEvent"
	RemoveParticipantFromEventProcedure = "/" + SettlementServiceName + "/RemoveParticipantFromEvent"
	CreateItemProcedure                 = "/" + SettlementServiceName + "/CreateItem"
	ListItemsProcedure                  = "/" + SettlementServiceName + "/ListItems"
	AddContributionProcedure            = "/" + SettlementServiceName + "/AddContribution"
	ListContributionsProcedure          = "/" + SettlementServiceName + "/ListContributions"
	AssignContributionProcedure         = "/" + SettlementServiceName + "/AssignContribution"
	UnassignContributionProcedure       = "/" + SettlementServiceName + "/UnassignContribution"
	UpdateContributionProcedure         = "/" + SettlementServiceName + "/UpdateContribution"
	DeleteContributionProcedure         = "/" + SettlementServiceName + "/DeleteContribution"
	ListActivityLogProcedure            = "/" + SettlementServiceName + "/ListActivityLog"
)

// NewSettlementServiceHandler builds an HTTP handler serving every procedure
// of svc. It returns the path prefix to mount the handler on.
func NewSettlementServiceHandler(svc *SettlementService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()

	handle(mux, GetEventSettlementProcedure, svc.GetEventSettlement, opts)
	handle(mux, ToggleSettlementStatusProcedure, svc.ToggleSettlementStatus, opts)
	handle(mux, GetDebtSummaryForParticipantProcedure, svc.GetDebtSummaryForParticipant, opts)
	handle(mux, GetDebtPortfolioProcedure, svc.GetDebtPortfolio, opts)
	handle(mux, GetDebtSummariesProcedure, svc.GetDebtSummaries, opts)

	handle(mux, CreateEventProcedure, svc.CreateEvent, opts)
	handle(mux, GetEventProcedure, svc.GetEvent, opts)
	handle(mux, ListEventsProcedure, svc.ListEvents, opts)
	handle(mux, DeleteEventProcedure, svc.DeleteEvent, opts)
	handle(mux, CreateParticipantProcedure, svc.CreateParticipant, opts)
	handle(mux, GetParticipantProcedure, svc.GetParticipant, opts)
	handle(mux, ListParticipantsProcedure, svc.ListParticipants, opts)
	handle(mux, ListEventParticipantsProcedure, svc.ListEventParticipants, opts)
	handle(mux, AddParticipantToEventProcedure, svc.AddParticipantToEvent, opts)
	handle(mux, RemoveParticipantFromEventProcedure, svc.RemoveParticipantFromEvent, opts)
	handle(mux, CreateItemProcedure, svc.CreateItem, opts)
	handle(mux, ListItemsProcedure, svc.ListItems, opts)
	handle(mux, AddContributionProcedure, svc.AddContribution, opts)
	handle(mux, ListContributionsProcedure, svc.ListContributions, opts)
	handle(mux, AssignContributionProcedure, svc.AssignContribution, opts)
	handle(mux, UnassignContributionProcedure, svc.UnassignContribution, opts)
	handle(mux, UpdateContributionProcedure, svc.UpdateContribution, opts)
	handle(mux, DeleteContributionProcedure, svc.DeleteContribution, opts)
	handle(mux, ListActivityLogProcedure, svc.ListActivityLog, opts)

	return "/" + SettlementServiceName + "/", mux
}

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// SettlementServiceClient calls a remote SettlementService over connect with
// JSON payloads.
type SettlementServiceClient struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

// NewSettlementServiceClient creates a client for the service at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementServiceClient {
	return &SettlementServiceClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *SettlementServiceClient, procedure string, req *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...)
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *SettlementServiceClient) GetEventSettlement(ctx context.Context, req *dto.EventRequest) (*dto.EventSettlementResponse, error) {
	return call[dto.EventRequest, dto.EventSettlementResponse](ctx, c, GetEventSettlementProcedure, req)
}

func (c *SettlementServiceClient) ToggleSettlementStatus(ctx context.Context, req *dto.ToggleSettlementRequest) (*dto.SettlementRecordResponse, error) {
	return call[dto.ToggleSettlementRequest, dto.SettlementRecordResponse](ctx, c, ToggleSettlementStatusProcedure, req)
}

func (c *SettlementServiceClient) GetDebtSummaryForParticipant(ctx context.Context, req *dto.ParticipantRequest) (*dto.DebtSummaryResult, error) {
	return call[dto.ParticipantRequest, dto.DebtSummaryResult](ctx, c, GetDebtSummaryForParticipantProcedure, req)
}

func (c *SettlementServiceClient) GetDebtPortfolio(ctx context.Context, req *dto.ParticipantRequest) (*dto.DebtPortfolioResponse, error) {
	return call[dto.ParticipantRequest, dto.DebtPortfolioResponse](ctx, c, GetDebtPortfolioProcedure, req)
}

func (c *SettlementServiceClient) GetDebtSummaries(ctx context.Context) (*dto.ListResponse[*dto.DebtSummaryResponse], error) {
	return call[dto.EmptyRequest, dto.ListResponse[*dto.DebtSummaryResponse]](ctx, c, GetDebtSummariesProcedure, &dto.EmptyRequest{})
}

func (c *SettlementServiceClient) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	return call[dto.CreateEventRequest, dto.EventResponse](ctx, c, CreateEventProcedure, req)
}

func (c *SettlementServiceClient) GetEvent(ctx context.Context, req *dto.EventRequest) (*dto.EventResponse, error) {
	return call[dto.EventRequest, dto.EventResponse](ctx, c, GetEventProcedure, req)
}

func (c *SettlementServiceClient) ListEvents(ctx context.Context) (*dto.ListResponse[*dto.EventResponse], error) {
	return call[dto.EmptyRequest, dto.ListResponse[*dto.EventResponse]](ctx, c, ListEventsProcedure, &dto.EmptyRequest{})
}

func (c *SettlementServiceClient) DeleteEvent(ctx context.Context, req *dto.EventRequest) error {
	_, err := call[dto.EventRequest, dto.EmptyResponse](ctx, c, DeleteEventProcedure, req)
	return err
}

func (c *SettlementServiceClient) CreateParticipant(ctx context.Context, req *dto.CreateParticipantRequest) (*dto.ParticipantResponse, error) {
	return call[dto.CreateParticipantRequest, dto.ParticipantResponse](ctx, c, CreateParticipantProcedure, req)
}

func (c *SettlementServiceClient) GetParticipant(ctx context.Context, req *dto.ParticipantRequest) (*dto.ParticipantResponse, error) {
	return call[dto.ParticipantRequest, dto.ParticipantResponse](ctx, c, GetParticipantProcedure, req)
}

func (c *SettlementServiceClient) ListParticipants(ctx context.Context) (*dto.ListResponse[*dto.ParticipantResponse], error) {
	return call[dto.EmptyRequest, dto.ListResponse[*dto.ParticipantResponse]](ctx, c, ListParticipantsProcedure, &dto.EmptyRequest{})
}

func (c *SettlementServiceClient) ListEventParticipants(ctx context.Context, req *dto.EventRequest) (*dto.ListResponse[*dto.ParticipantResponse], error) {
	return call[dto.EventRequest, dto.ListResponse[*dto.ParticipantResponse]](ctx, c, ListEventParticipantsProcedure, req)
}

func (c *SettlementServiceClient) AddParticipantToEvent(ctx context.Context, req *dto.EventParticipantRequest) error {
	_, err := call[dto.EventParticipantRequest, dto.EmptyResponse](ctx, c, AddParticipantToEventProcedure, req)
	return err
}

func (c *SettlementServiceClient) RemoveParticipantFromEvent(ctx context.Context, req *dto.EventParticipantRequest) error {
	_, err := call[dto.EventParticipantRequest, dto.EmptyResponse](ctx, c, RemoveParticipantFromEventProcedure, req)
	return err
}

func (c *SettlementServiceClient) CreateItem(ctx context.Context, req *dto.CreateItemRequest) (*dto.ItemResponse, error) {
	return call[dto.CreateItemRequest, dto.ItemResponse](ctx, c, CreateItemProcedure, req)
}

func (c *SettlementServiceClient) ListItems(ctx context.Context) (*dto.ListResponse[*dto.ItemResponse], error) {
	return call[dto.EmptyRequest, dto.ListResponse[*dto.ItemResponse]](ctx, c, ListItemsProcedure, &dto.EmptyRequest{})
}

func (c *SettlementServiceClient) AddContribution(ctx context.Context, req *dto.AddContributionRequest) (*dto.ContributionResponse, error) {
	return call[dto.AddContributionRequest, dto.ContributionResponse](ctx, c, AddContributionProcedure, req)
}

func (c *SettlementServiceClient) ListContributions(ctx context.Context, req *dto.EventRequest) (*dto.ListResponse[*dto.ContributionResponse], error) {
	return call[dto.EventRequest, dto.ListResponse[*dto.ContributionResponse]](ctx, c, ListContributionsProcedure, req)
}

func (c *SettlementServiceClient) AssignContribution(ctx context.Context, req *dto.AssignContributionRequest) (*dto.ContributionResponse, error) {
	return call[dto.AssignContributionRequest, dto.ContributionResponse](ctx, c, AssignContributionProcedure, req)
}

func (c *SettlementServiceClient) UnassignContribution(ctx context.Context, req *dto.ContributionRequest) (*dto.ContributionResponse, error) {
	return call[dto.ContributionRequest, dto.ContributionResponse](ctx, c, UnassignContributionProcedure, req)
}

func (c *SettlementServiceClient) UpdateContribution(ctx context.Context, req *dto.UpdateContributionRequest) (*dto.ContributionResponse, error) {
	return call[dto.UpdateContributionRequest, dto.ContributionResponse](ctx, c, UpdateContributionProcedure, req)
}

func (c *SettlementServiceClient) DeleteContribution(ctx context.Context, req *dto.ContributionRequest) error {
	_, err := call[dto.ContributionRequest, dto.EmptyResponse](ctx, c, DeleteContributionProcedure, req)
	return err
}

func (c *SettlementServiceClient) ListActivityLog(ctx context.Context, req *dto.ListActivityLogRequest) (*dto.ListResponse[*dto.ActivityLogResponse], error) {
	return call[dto.ListActivityLogRequest, dto.ListResponse[*dto.ActivityLogResponse]](ctx, c, ListActivityLogProcedure, req)
}
