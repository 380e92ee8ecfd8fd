package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/logging"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/store"
)

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a recorded event.
type OKResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError maps err onto a status code and writes it as an ErrorResponse.
// The request-scoped logger from the context is preferred over logger.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		status  int
		message string
		badBody *badRequestError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, store.ErrUnavailable):
		status, message = http.StatusInternalServerError, "Database not configured"
	case errors.Is(err, activity.ErrInvalidEventType):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, process.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.As(err, &tooBig):
		status, message = http.StatusRequestEntityTooLarge, "request body too large"
	case errors.As(err, &badBody):
		status, message = http.StatusBadRequest, badBody.Error()
	default:
		status, message = http.StatusInternalServerError, "internal error"
	}

	logger = logging.FromContext(r.Context(), logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

// badRequestError marks client errors in the request itself.
type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &badRequestError{msg: msg, err: err}
}

// actorOrDefault returns actor, or def when the actor was not sent.
// An explicit empty actor is kept.
func actorOrDefault(actor *string, def string) string {
	if actor == nil {
		return def
	}
	return *actor
}
