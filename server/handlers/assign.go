package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/procsim/activity"
)

const defaultAssignActor = "admin"

// AssignRequest is the body of POST /assign.
type AssignRequest struct {
	StageKey string  `json:"stage_key"`
	ItemKey  string  `json:"item_key"`
	Assignee string  `json:"assignee"`
	Actor    *string `json:"actor,omitempty"`
}

// AssignHandler records the assignment of a reviewer to an item.
type AssignHandler struct {
	logger     *slog.Logger
	log        EventAppender
	processKey string
}

// NewAssignHandler creates a new AssignHandler.
func NewAssignHandler(logger *slog.Logger, log EventAppender, processKey string) *AssignHandler {
	return &AssignHandler{
		logger:     logger,
		log:        log,
		processKey: processKey,
	}
}

// ServeHTTP implements http.Handler.
func (h *AssignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := decodeBody(w, r, assignSchema, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	_, err := h.log.Append(r.Context(), activity.NewEvent{
		ProcessKey: h.processKey,
		StageKey:   req.StageKey,
		ItemKey:    req.ItemKey,
		Type:       activity.TypeAssignment,
		Actor:      actorOrDefault(req.Actor, defaultAssignActor),
		Meta:       activity.AssignmentMeta{Assignee: req.Assignee},
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
