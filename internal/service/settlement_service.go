package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/apierrors"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/dto"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/middleware"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// Engine is the settlement behavior served over RPC and REST.
// *settlement.Engine implements it.
type Engine interface {
	GetEventSettlement(ctx context.Context, eventID string) (*models.EventSettlement, error)
	ToggleSettlementStatus(ctx context.Context, eventID, debtorID, creditorID string) (*models.SettlementRecord, error)
	GetDebtSummaryForParticipant(ctx context.Context, participantID string) (*models.ParticipantDebtSummary, error)
	GetDebtPortfolio(ctx context.Context, participantID string) (*models.ParticipantDebtPortfolio, error)
	GetDebtSummaries(ctx context.Context) ([]*models.ParticipantDebtSummary, error)

	CreateEvent(ctx context.Context, title, location string, startsAt *time.Time) (*models.Event, error)
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error

	CreateParticipant(ctx context.Context, name string) (*models.Participant, error)
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]*models.Participant, error)
	ListEventParticipants(ctx context.Context, eventID string) ([]*models.Participant, error)
	AddParticipantToEvent(ctx context.Context, eventID, participantID string) error
	RemoveParticipantFromEvent(ctx context.Context, eventID, participantID string) error

	CreateItem(ctx context.Context, name, category string) (*models.Item, error)
	ListItems(ctx context.Context) ([]*models.Item, error)

	AddContribution(ctx context.Context, in settlement.ContributionInput) (*models.Contribution, error)
	ListContributions(ctx context.Context, eventID string) ([]*models.Contribution, error)
	AssignContribution(ctx context.Context, contributionID, participantID string) (*models.Contribution, error)
	UnassignContribution(ctx context.Context, contributionID string) (*models.Contribution, error)
	UpdateContribution(ctx context.Context, contributionID string, quantity *int, cost *decimal.Decimal) (*models.Contribution, error)
	DeleteContribution(ctx context.Context, contributionID string) error

	ListActivityLog(ctx context.Context, eventID string, limit int) ([]*models.ActivityLogEntry, error)
}

var _ Engine = (*settlement.Engine)(nil)

// SettlementService implements the Connect SettlementService
type SettlementService struct {
	engine Engine
}

// NewSettlementService creates a new SettlementService on top of the engine.
func NewSettlementService(engine Engine) *SettlementService {
	return &SettlementService{engine: engine}
}

// GetEventSettlement returns the reconciled settlement of an event.
func (s *SettlementService) GetEventSettlement(ctx context.Context, req *connect.Request[dto.EventRequest]) (*connect.Response[dto.EventSettlementResponse], error) {
	slog.Info("GetEventSettlement request received", "event_id", req.Msg.EventID)
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.engine.GetEventSettlement(ctx, req.Msg.EventID)
	if err != nil {
		slog.Error("GetEventSettlement failed", "event_id", req.Msg.EventID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetEventSettlement successful",
		"event_id", result.EventID,
		"participants", result.ParticipantCount,
		"transactions", len(result.Transactions),
	)
	return connect.NewResponse(dto.MapEventSettlementToDTO(result)), nil
}

// ToggleSettlementStatus flips the paid flag of one transfer. The caller, if
// authenticated, is recorded as the actor in the activity log.
func (s *SettlementService) ToggleSettlementStatus(ctx context.Context, req *connect.Request[dto.ToggleSettlementRequest]) (*connect.Response[dto.SettlementRecordResponse], error) {
	slog.Info("ToggleSettlementStatus request received",
		"event_id", req.Msg.EventID,
		"debtor_id", req.Msg.DebtorID,
		"creditor_id", req.Msg.CreditorID,
	)
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	ctx = settlement.WithActor(ctx, middleware.GetUserID(ctx))
	rec, err := s.engine.ToggleSettlementStatus(ctx, req.Msg.EventID, req.Msg.DebtorID, req.Msg.CreditorID)
	if err != nil {
		slog.Error("ToggleSettlementStatus failed", "event_id", req.Msg.EventID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(dto.MapSettlementRecordToDTO(rec)), nil
}

// GetDebtSummaryForParticipant returns a participant's totals, or a null
// summary when there is nothing to report.
func (s *SettlementService) GetDebtSummaryForParticipant(ctx context.Context, req *connect.Request[dto.ParticipantRequest]) (*connect.Response[dto.DebtSummaryResult], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	summary, err := s.engine.GetDebtSummaryForParticipant(ctx, req.Msg.ParticipantID)
	if err != nil {
		slog.Error("GetDebtSummaryForParticipant failed", "participant_id", req.Msg.ParticipantID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&dto.DebtSummaryResult{Summary: dto.MapDebtSummaryToDTO(summary)}), nil
}

// GetDebtPortfolio returns the full cross-event view of a participant.
func (s *SettlementService) GetDebtPortfolio(ctx context.Context, req *connect.Request[dto.ParticipantRequest]) (*connect.Response[dto.DebtPortfolioResponse], error) {
	slog.Info("GetDebtPortfolio request received", "participant_id", req.Msg.ParticipantID)
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	portfolio, err := s.engine.GetDebtPortfolio(ctx, req.Msg.ParticipantID)
	if err != nil {
		slog.Error("GetDebtPortfolio failed", "participant_id", req.Msg.ParticipantID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(dto.MapDebtPortfolioToDTO(portfolio)), nil
}

// GetDebtSummaries returns the summary of every participant with events.
func (s *SettlementService) GetDebtSummaries(ctx context.Context, req *connect.Request[dto.EmptyRequest]) (*connect.Response[dto.ListResponse[*dto.DebtSummaryResponse]], error) {
	summaries, err := s.engine.GetDebtSummaries(ctx)
	if err != nil {
		slog.Error("GetDebtSummaries failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetDebtSummaries successful", "count", len(summaries))
	return connect.NewResponse(dto.NewListResponse(dto.MapDebtSummariesToDTO(summaries))), nil
}

// toConnectError maps engine and validation errors to connect codes.
func toConnectError(err error) error {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		return connect.NewError(connect.CodeInvalidArgument, errors.New(apiErr.Details))
	case errors.Is(err, settlement.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case storage.IsRetryable(err):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
