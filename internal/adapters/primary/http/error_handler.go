package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/bug-burndown/internal/adapters/primary/http/middleware"
	"github.com/lorrc/bug-burndown/internal/adapters/primary/presenter"
	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields    map[string][]string `json:"fields,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	// AppError carries its own status
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, err)
		h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:     appErr.Message,
			Code:      appErr.Code,
			Details:   appErr.Details,
			RequestID: requestID,
		})
		return
	}

	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		h.writeValidationErrorResponse(w, validationErrs, requestID)
		return
	}

	statusCode, response := h.mapDomainError(err)
	response.RequestID = requestID
	h.logError(r, statusCode, err)
	h.writeErrorResponse(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	var fetchErr *apperrors.FetchError

	switch {
	// Upstream tracker failures
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, ErrorResponse{
			Error:   presenter.ErrorText(fetchErr),
			Code:    "UPSTREAM_ERROR",
			Details: map[string]interface{}{"type": fetchErr.Type},
		}

	// Request errors
	case errors.Is(err, apperrors.ErrMalformedQuery):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Malformed query string",
			Code:  "MALFORMED_QUERY",
		}
	case errors.Is(err, apperrors.ErrInvalidStartDate):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		}
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Bad request",
			Code:  "BAD_REQUEST",
		}

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}

	// Default to internal server error
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// StatusFor returns the status code Handle would write for err.
func (h *ErrorHandler) StatusFor(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusUnprocessableEntity
	}
	status, _ := h.mapDomainError(err)
	return status
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	logAttrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	ctx := r.Context()
	switch {
	case statusCode >= 500:
		h.logger.ErrorContext(ctx, "server error", logAttrs...)
	case statusCode >= 400:
		h.logger.WarnContext(ctx, "client error", logAttrs...)
	default:
		h.logger.InfoContext(ctx, "request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:     "Validation failed",
		Code:      "VALIDATION_ERROR",
		Fields:    errs.Errors,
		RequestID: requestID,
	})
}

// HandleError Helper function to handle errors inline in handlers
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
