package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/auth"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/middleware"
)

// SetupRoutes configures all REST API routes. metrics may be nil.
func SetupRoutes(router *gin.Engine, handler Handler, adminKey *auth.AdminKeyVerifier, metrics http.Handler) {
	// Health check and metrics (no auth, no prefix)
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/events", handler.ListEvents)
		api.POST("/events", handler.CreateEvent)
		api.GET("/events/:id", handler.GetEvent)
		api.DELETE("/events/:id", handler.DeleteEvent)

		api.GET("/events/:id/participants", handler.ListEventParticipants)
		api.POST("/events/:id/participants", handler.AddParticipantToEvent)
		api.DELETE("/events/:id/participants/:participantId", handler.RemoveParticipantFromEvent)

		api.GET("/events/:id/contributions", handler.ListContributions)
		api.POST("/events/:id/contributions", handler.AddContribution)

		api.GET("/events/:id/settlement", handler.GetEventSettlement)
		api.POST("/events/:id/settlement/toggle", handler.ToggleSettlementStatus)
		api.GET("/events/:id/activity", handler.ListActivityLog)

		api.GET("/participants", handler.ListParticipants)
		api.POST("/participants", handler.CreateParticipant)
		api.GET("/participants/:id", handler.GetParticipant)
		api.GET("/participants/:id/debt-summary", handler.GetDebtSummary)
		api.GET("/participants/:id/debt-portfolio", handler.GetDebtPortfolio)

		api.GET("/items", handler.ListItems)
		api.POST("/items", handler.CreateItem)

		api.PATCH("/contributions/:id", handler.UpdateContribution)
		api.DELETE("/contributions/:id", handler.DeleteContribution)
		api.PUT("/contributions/:id/assignee", handler.AssignContribution)
		api.DELETE("/contributions/:id/assignee", handler.UnassignContribution)

		api.GET("/activity", handler.ListActivityLog)

		// Global summaries expose every participant (admin key)
		api.GET("/debts/summaries", middleware.GinRequireAdminKey(adminKey), handler.GetDebtSummaries)
	}
}
