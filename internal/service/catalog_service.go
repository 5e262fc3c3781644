package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/dto"
)

// Events

// CreateEvent creates a new event.
func (s *SettlementService) CreateEvent(ctx context.Context, req *connect.Request[dto.CreateEventRequest]) (*connect.Response[dto.EventResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	event, err := s.engine.CreateEvent(ctx, req.Msg.Title, req.Msg.Location, req.Msg.StartsAt)
	if err != nil {
		slog.Error("CreateEvent failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Event created", "event_id", event.ID, "title", event.Title)
	return connect.NewResponse(dto.MapEventToDTO(event)), nil
}

// GetEvent retrieves an event by ID.
func (s *SettlementService) GetEvent(ctx context.Context, req *connect.Request[dto.EventRequest]) (*connect.Response[dto.EventResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	event, err := s.engine.GetEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapEventToDTO(event)), nil
}

// ListEvents retrieves all events.
func (s *SettlementService) ListEvents(ctx context.Context, req *connect.Request[dto.EmptyRequest]) (*connect.Response[dto.ListResponse[*dto.EventResponse]], error) {
	events, err := s.engine.ListEvents(ctx)
	if err != nil {
		slog.Error("ListEvents failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.NewListResponse(dto.MapEventsToDTO(events))), nil
}

// DeleteEvent deletes an event with its contributions and transfers.
func (s *SettlementService) DeleteEvent(ctx context.Context, req *connect.Request[dto.EventRequest]) (*connect.Response[dto.EmptyResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.engine.DeleteEvent(ctx, req.Msg.EventID); err != nil {
		slog.Error("DeleteEvent failed", "event_id", req.Msg.EventID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Event deleted", "event_id", req.Msg.EventID)
	return connect.NewResponse(&dto.EmptyResponse{}), nil
}

// Participants

// CreateParticipant creates a new participant.
func (s *SettlementService) CreateParticipant(ctx context.Context, req *connect.Request[dto.CreateParticipantRequest]) (*connect.Response[dto.ParticipantResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	p, err := s.engine.CreateParticipant(ctx, req.Msg.Name)
	if err != nil {
		slog.Error("CreateParticipant failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapParticipantToDTO(p)), nil
}

// GetParticipant retrieves a participant by ID.
func (s *SettlementService) GetParticipant(ctx context.Context, req *connect.Request[dto.ParticipantRequest]) (*connect.Response[dto.ParticipantResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	p, err := s.engine.GetParticipant(ctx, req.Msg.ParticipantID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapParticipantToDTO(p)), nil
}

// ListParticipants retrieves all participants.
func (s *SettlementService) ListParticipants(ctx context.Context, req *connect.Request[dto.EmptyRequest]) (*connect.Response[dto.ListResponse[*dto.ParticipantResponse]], error) {
	participants, err := s.engine.ListParticipants(ctx)
	if err != nil {
		slog.Error("ListParticipants failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.NewListResponse(dto.MapParticipantsToDTO(participants))), nil
}

// ListEventParticipants retrieves the members of an event.
func (s *SettlementService) ListEventParticipants(ctx context.Context, req *connect.Request[dto.EventRequest]) (*connect.Response[dto.ListResponse[*dto.ParticipantResponse]], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	participants, err := s.engine.ListEventParticipants(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.NewListResponse(dto.MapParticipantsToDTO(participants))), nil
}

// AddParticipantToEvent adds a participant to an event.
func (s *SettlementService) AddParticipantToEvent(ctx context.Context, req *connect.Request[dto.EventParticipantRequest]) (*connect.Response[dto.EmptyResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.engine.AddParticipantToEvent(ctx, req.Msg.EventID, req.Msg.ParticipantID); err != nil {
		slog.Error("AddParticipantToEvent failed",
			"event_id", req.Msg.EventID,
			"participant_id", req.Msg.ParticipantID,
			"error", err,
		)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&dto.EmptyResponse{}), nil
}

// RemoveParticipantFromEvent removes a participant and their contributions from an event.
func (s *SettlementService) RemoveParticipantFromEvent(ctx context.Context, req *connect.Request[dto.EventParticipantRequest]) (*connect.Response[dto.EmptyResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.engine.RemoveParticipantFromEvent(ctx, req.Msg.EventID, req.Msg.ParticipantID); err != nil {
		slog.Error("RemoveParticipantFromEvent failed",
			"event_id", req.Msg.EventID,
			"participant_id", req.Msg.ParticipantID,
			"error", err,
		)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&dto.EmptyResponse{}), nil
}

// Items

// CreateItem adds an item to the catalog.
func (s *SettlementService) CreateItem(ctx context.Context, req *connect.Request[dto.CreateItemRequest]) (*connect.Response[dto.ItemResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	item, err := s.engine.CreateItem(ctx, req.Msg.Name, req.Msg.Category)
	if err != nil {
		slog.Error("CreateItem failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapItemToDTO(item)), nil
}

// ListItems retrieves the catalog.
func (s *SettlementService) ListItems(ctx context.Context, req *connect.Request[dto.EmptyRequest]) (*connect.Response[dto.ListResponse[*dto.ItemResponse]], error) {
	items, err := s.engine.ListItems(ctx)
	if err != nil {
		slog.Error("ListItems failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.NewListResponse(dto.MapItemsToDTO(items))), nil
}

// Contributions

// AddContribution adds an item to an event.
func (s *SettlementService) AddContribution(ctx context.Context, req *connect.Request[dto.AddContributionRequest]) (*connect.Response[dto.ContributionResponse], error) {
	in, err := req.Msg.Input()
	if err != nil {
		return nil, toConnectError(err)
	}

	c, err := s.engine.AddContribution(ctx, in)
	if err != nil {
		slog.Error("AddContribution failed", "event_id", in.EventID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapContributionToDTO(c)), nil
}

// ListContributions retrieves the contributions of an event.
func (s *SettlementService) ListContributions(ctx context.Context, req *connect.Request[dto.EventRequest]) (*connect.Response[dto.ListResponse[*dto.ContributionResponse]], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	contributions, err := s.engine.ListContributions(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.NewListResponse(dto.MapContributionsToDTO(contributions))), nil
}

// AssignContribution sets the payer of a contribution.
func (s *SettlementService) AssignContribution(ctx context.Context, req *connect.Request[dto.AssignContributionRequest]) (*connect.Response[dto.ContributionResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	c, err := s.engine.AssignContribution(ctx, req.Msg.ContributionID, req.Msg.ParticipantID)
	if err != nil {
		slog.Error("AssignContribution failed", "contribution_id", req.Msg.ContributionID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapContributionToDTO(c)), nil
}

// UnassignContribution clears the payer of a contribution.
func (s *SettlementService) UnassignContribution(ctx context.Context, req *connect.Request[dto.ContributionRequest]) (*connect.Response[dto.ContributionResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	c, err := s.engine.UnassignContribution(ctx, req.Msg.ContributionID)
	if err != nil {
		slog.Error("UnassignContribution failed", "contribution_id", req.Msg.ContributionID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapContributionToDTO(c)), nil
}

// UpdateContribution changes the quantity or cost of a contribution.
func (s *SettlementService) UpdateContribution(ctx context.Context, req *connect.Request[dto.UpdateContributionRequest]) (*connect.Response[dto.ContributionResponse], error) {
	quantity, cost, err := req.Msg.Changes()
	if err != nil {
		return nil, toConnectError(err)
	}

	c, err := s.engine.UpdateContribution(ctx, req.Msg.ContributionID, quantity, cost)
	if err != nil {
		slog.Error("UpdateContribution failed", "contribution_id", req.Msg.ContributionID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.MapContributionToDTO(c)), nil
}

// DeleteContribution removes a contribution.
func (s *SettlementService) DeleteContribution(ctx context.Context, req *connect.Request[dto.ContributionRequest]) (*connect.Response[dto.EmptyResponse], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.engine.DeleteContribution(ctx, req.Msg.ContributionID); err != nil {
		slog.Error("DeleteContribution failed", "contribution_id", req.Msg.ContributionID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&dto.EmptyResponse{}), nil
}

// Activity log

// ListActivityLog retrieves toggle activity, newest first.
func (s *SettlementService) ListActivityLog(ctx context.Context, req *connect.Request[dto.ListActivityLogRequest]) (*connect.Response[dto.ListResponse[*dto.ActivityLogResponse]], error) {
	if err := req.Msg.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	entries, err := s.engine.ListActivityLog(ctx, req.Msg.EventID, req.Msg.Limit)
	if err != nil {
		slog.Error("ListActivityLog failed", "event_id", req.Msg.EventID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(dto.NewListResponse(dto.MapActivityLogToDTO(entries))), nil
}
