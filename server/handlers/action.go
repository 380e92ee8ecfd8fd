package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/procsim/activity"
)

const defaultActionActor = "assignee"

// ActionRequest is the body of POST /action.
type ActionRequest struct {
	StageKey string  `json:"stage_key"`
	ItemKey  string  `json:"item_key"`
	Action   string  `json:"action"`
	Note     *string `json:"note,omitempty"`
	Actor    *string `json:"actor,omitempty"`
}

// ActionHandler records a download, review, decision or note on an item.
type ActionHandler struct {
	logger     *slog.Logger
	log        EventAppender
	processKey string
}

// NewActionHandler creates a new ActionHandler.
func NewActionHandler(logger *slog.Logger, log EventAppender, processKey string) *ActionHandler {
	return &ActionHandler{
		logger:     logger,
		log:        log,
		processKey: processKey,
	}
}

// ServeHTTP implements http.Handler.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := decodeBody(w, r, actionSchema, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	typ, err := activity.ParseActionType(req.Action)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var note string
	if req.Note != nil {
		note = *req.Note
	}

	_, err = h.log.Append(r.Context(), activity.NewEvent{
		ProcessKey: h.processKey,
		StageKey:   req.StageKey,
		ItemKey:    req.ItemKey,
		Type:       typ,
		Actor:      actorOrDefault(req.Actor, defaultActionActor),
		Meta:       activity.ActionMeta(note),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
