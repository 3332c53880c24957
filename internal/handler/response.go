package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niyamr/internal/domain"
	"niyamr/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"document could not be read"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// MapDomainError translates domain errors to HTTP status codes and messages.
func MapDomainError(err error) (status int, msg string) {
	var maxBytesErr *http.MaxBytesError
	var extractionErr *domain.ExtractionError

	switch {
	case errors.Is(err, domain.ErrFileTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, domain.ErrFileTooLarge.Error()
	case errors.Is(err, domain.ErrMissingDocument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidRules):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrStorageDisabled):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "evaluation timed out before all rules were judged"
	case errors.As(err, &extractionErr):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, msg := MapDomainError(err)
	log := logger.FromContext(c.Request.Context(), nil)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	RespondError(c, status, msg)
}
