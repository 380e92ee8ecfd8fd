package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/procsim/activity"
)

// LogsResponse is the JSON response for GET /logs.
type LogsResponse struct {
	Logs []activity.Event `json:"logs"`
}

// LogsHandler lists activity for the default process, newest first.
// The optional stage_key and item_key query parameters narrow the result.
type LogsHandler struct {
	logger     *slog.Logger
	querier    EventQuerier
	processKey string
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(logger *slog.Logger, querier EventQuerier, processKey string) *LogsHandler {
	return &LogsHandler{
		logger:     logger,
		querier:    querier,
		processKey: processKey,
	}
}

// ServeHTTP implements http.Handler.
func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.querier.Query(r.Context(), activity.Filter{
		ProcessKey: h.processKey,
		StageKey:   q.Get("stage_key"),
		ItemKey:    q.Get("item_key"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LogsResponse{Logs: events})
}
