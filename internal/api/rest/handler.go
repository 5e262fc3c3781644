// Package rest serves the settlement engine as a JSON REST API on gin.
package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/dto"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/middleware"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/service"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
)

// Handler defines the REST API handlers
type Handler interface {
	// GetEventSettlement returns the reconciled settlement of an event
	// GET /api/events/:id/settlement
	GetEventSettlement(c *gin.Context)

	// ToggleSettlementStatus flips the paid flag of one transfer
	// POST /api/events/:id/settlement/toggle body {debtorId, creditorId}
	ToggleSettlementStatus(c *gin.Context)

	// GetDebtSummary returns a participant's totals, null when there is no data
	// GET /api/participants/:id/debt-summary
	GetDebtSummary(c *gin.Context)

	// GetDebtPortfolio returns the cross-event view of a participant
	// GET /api/participants/:id/debt-portfolio
	GetDebtPortfolio(c *gin.Context)

	// GetDebtSummaries returns every participant's totals (admin key)
	// GET /api/debts/summaries
	GetDebtSummaries(c *gin.Context)

	// Events
	// GET, POST /api/events; GET, DELETE /api/events/:id
	ListEvents(c *gin.Context)
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	DeleteEvent(c *gin.Context)

	// Event membership
	// GET, POST /api/events/:id/participants; DELETE /api/events/:id/participants/:participantId
	ListEventParticipants(c *gin.Context)
	AddParticipantToEvent(c *gin.Context)
	RemoveParticipantFromEvent(c *gin.Context)

	// Participants
	// GET, POST /api/participants; GET /api/participants/:id
	ListParticipants(c *gin.Context)
	CreateParticipant(c *gin.Context)
	GetParticipant(c *gin.Context)

	// Items
	// GET, POST /api/items
	ListItems(c *gin.Context)
	CreateItem(c *gin.Context)

	// Contributions
	// GET, POST /api/events/:id/contributions; PATCH, DELETE /api/contributions/:id;
	// PUT, DELETE /api/contributions/:id/assignee
	ListContributions(c *gin.Context)
	AddContribution(c *gin.Context)
	UpdateContribution(c *gin.Context)
	DeleteContribution(c *gin.Context)
	AssignContribution(c *gin.Context)
	UnassignContribution(c *gin.Context)

	// ListActivityLog returns toggle activity, newest first
	// GET /api/activity?eventId=<id>&limit=<limit>; GET /api/events/:id/activity?limit=<limit>
	ListActivityLog(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

type handler struct {
	engine service.Engine
}

// NewHandler creates a new REST API handler
func NewHandler(engine service.Engine) Handler {
	return &handler{engine: engine}
}

func (h *handler) GetEventSettlement(c *gin.Context) {
	result, err := h.engine.GetEventSettlement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get event settlement")
		return
	}
	c.JSON(http.StatusOK, dto.MapEventSettlementToDTO(result))
}

func (h *handler) ToggleSettlementStatus(c *gin.Context) {
	var req dto.ToggleSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	req.EventID = c.Param("id")
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	ctx := settlement.WithActor(c.Request.Context(), middleware.GetUserID(c.Request.Context()))
	rec, err := h.engine.ToggleSettlementStatus(ctx, req.EventID, req.DebtorID, req.CreditorID)
	if err != nil {
		respondError(c, err, "Failed to toggle settlement")
		return
	}
	c.JSON(http.StatusOK, dto.MapSettlementRecordToDTO(rec))
}

func (h *handler) GetDebtSummary(c *gin.Context) {
	summary, err := h.engine.GetDebtSummaryForParticipant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get debt summary")
		return
	}
	// A nil summary renders as a null body.
	c.JSON(http.StatusOK, dto.MapDebtSummaryToDTO(summary))
}

func (h *handler) GetDebtPortfolio(c *gin.Context) {
	portfolio, err := h.engine.GetDebtPortfolio(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get debt portfolio")
		return
	}
	c.JSON(http.StatusOK, dto.MapDebtPortfolioToDTO(portfolio))
}

func (h *handler) GetDebtSummaries(c *gin.Context) {
	summaries, err := h.engine.GetDebtSummaries(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get debt summaries")
		return
	}
	c.JSON(http.StatusOK, dto.MapDebtSummariesToDTO(summaries))
}

func (h *handler) ListEvents(c *gin.Context) {
	events, err := h.engine.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list events")
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.MapEventsToDTO(events)))
}

func (h *handler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	event, err := h.engine.CreateEvent(c.Request.Context(), req.Title, req.Location, req.StartsAt)
	if err != nil {
		respondError(c, err, "Failed to create event")
		return
	}
	c.JSON(http.StatusCreated, dto.MapEventToDTO(event))
}

func (h *handler) GetEvent(c *gin.Context) {
	event, err := h.engine.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Event not found")
		return
	}
	c.JSON(http.StatusOK, dto.MapEventToDTO(event))
}

func (h *handler) DeleteEvent(c *gin.Context) {
	if err := h.engine.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) ListEventParticipants(c *gin.Context) {
	participants, err := h.engine.ListEventParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list event participants")
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.MapParticipantsToDTO(participants)))
}

func (h *handler) AddParticipantToEvent(c *gin.Context) {
	var req dto.EventParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	req.EventID = c.Param("id")
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	if err := h.engine.AddParticipantToEvent(c.Request.Context(), req.EventID, req.ParticipantID); err != nil {
		respondError(c, err, "Failed to add participant to event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) RemoveParticipantFromEvent(c *gin.Context) {
	if err := h.engine.RemoveParticipantFromEvent(c.Request.Context(), c.Param("id"), c.Param("participantId")); err != nil {
		respondError(c, err, "Failed to remove participant from event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) ListParticipants(c *gin.Context) {
	participants, err := h.engine.ListParticipants(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list participants")
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.MapParticipantsToDTO(participants)))
}

func (h *handler) CreateParticipant(c *gin.Context) {
	var req dto.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	p, err := h.engine.CreateParticipant(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "Failed to create participant")
		return
	}
	c.JSON(http.StatusCreated, dto.MapParticipantToDTO(p))
}

func (h *handler) GetParticipant(c *gin.Context) {
	p, err := h.engine.GetParticipant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Participant not found")
		return
	}
	c.JSON(http.StatusOK, dto.MapParticipantToDTO(p))
}

func (h *handler) ListItems(c *gin.Context) {
	items, err := h.engine.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list items")
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.MapItemsToDTO(items)))
}

func (h *handler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	item, err := h.engine.CreateItem(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		respondError(c, err, "Failed to create item")
		return
	}
	c.JSON(http.StatusCreated, dto.MapItemToDTO(item))
}

func (h *handler) ListContributions(c *gin.Context) {
	contributions, err := h.engine.ListContributions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list contributions")
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.MapContributionsToDTO(contributions)))
}

func (h *handler) AddContribution(c *gin.Context) {
	var req dto.AddContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	req.EventID = c.Param("id")
	in, err := req.Input()
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	contribution, err := h.engine.AddContribution(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Failed to add contribution")
		return
	}
	c.JSON(http.StatusCreated, dto.MapContributionToDTO(contribution))
}

func (h *handler) UpdateContribution(c *gin.Context) {
	var req dto.UpdateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	req.ContributionID = c.Param("id")
	quantity, cost, err := req.Changes()
	if err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	contribution, err := h.engine.UpdateContribution(c.Request.Context(), req.ContributionID, quantity, cost)
	if err != nil {
		respondError(c, err, "Failed to update contribution")
		return
	}
	c.JSON(http.StatusOK, dto.MapContributionToDTO(contribution))
}

func (h *handler) DeleteContribution(c *gin.Context) {
	if err := h.engine.DeleteContribution(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete contribution")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) AssignContribution(c *gin.Context) {
	var req dto.AssignContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	req.ContributionID = c.Param("id")
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	contribution, err := h.engine.AssignContribution(c.Request.Context(), req.ContributionID, req.ParticipantID)
	if err != nil {
		respondError(c, err, "Failed to assign contribution")
		return
	}
	c.JSON(http.StatusOK, dto.MapContributionToDTO(contribution))
}

func (h *handler) UnassignContribution(c *gin.Context) {
	contribution, err := h.engine.UnassignContribution(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to unassign contribution")
		return
	}
	c.JSON(http.StatusOK, dto.MapContributionToDTO(contribution))
}

func (h *handler) ListActivityLog(c *gin.Context) {
	req := dto.ListActivityLogRequest{EventID: c.Param("id")}
	if req.EventID == "" {
		req.EventID = c.Query("eventId")
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondValidationError(c, "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request")
		return
	}

	entries, err := h.engine.ListActivityLog(c.Request.Context(), req.EventID, req.Limit)
	if err != nil {
		respondError(c, err, "Failed to list activity log")
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(dto.MapActivityLogToDTO(entries)))
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "kashta-settlement",
	})
}
