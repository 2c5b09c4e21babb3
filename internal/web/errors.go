package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with full technical detail and the request id, then
// returned to the client as a mapped user message: an HTML fragment for
// HTMX, JSON for API callers, plain text otherwise.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/files"
	"github.com/JonMunkholm/exoplorer/internal/logging"
	"github.com/JonMunkholm/exoplorer/internal/predict"
	"github.com/JonMunkholm/exoplorer/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message. A zero
// statusCode is derived from the error with statusFor.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := core.MapError(err)
	respondLog(r, err, statusCode, userMsg.Code)

	switch {
	case isHTMX(r):
		// static/app.js configures htmx to swap error responses.
		render(w, r, statusCode, templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code))
	case wantsJSON(r):
		writeJSON(w, r, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// respondLog records a failed request. Client errors log at warn level.
func respondLog(r *http.Request, err error, statusCode int, code string) {
	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", code,
	}
	if statusCode >= 500 {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}
}

// statusFor picks the HTTP status that matches a domain error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var apiErr *predict.APIError

	switch {
	case errors.Is(err, core.ErrNoTable),
		errors.Is(err, core.ErrCandidateNotFound),
		errors.Is(err, core.ErrNoCandidates),
		errors.Is(err, files.ErrFileNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrFileTooLarge),
		errors.Is(err, files.ErrFileTooLarge),
		errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrNoFields),
		errors.Is(err, files.ErrFileType),
		errors.Is(err, files.ErrInvalidName):
		return http.StatusBadRequest

	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, core.ErrTooManyUploads),
		errors.Is(err, predict.ErrDisabled):
		return http.StatusServiceUnavailable

	case errors.As(err, &apiErr),
		strings.Contains(err.Error(), "prediction service"):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
