package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/apierrors"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(details))
}

// respondError maps an engine error to its status and body. Unexpected
// errors are logged and reported as message.
func respondError(c *gin.Context, err error, message string) {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadRequest, apiErr)
	case errors.Is(err, settlement.ErrInvalidArgument):
		respondValidationError(c, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, err.Error()))
	case errors.Is(err, storage.ErrConflict):
		c.JSON(http.StatusConflict, apierrors.NewConflictError(message, err.Error()))
	case storage.IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, apierrors.NewUnavailableError(message))
	default:
		_ = c.Error(err)
		slog.Error(message, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
	}
}
