package handlers

import (
	"net/http"
	"time"
)

// NextRefreshResponse describes when the stats are next recomputed.
type NextRefreshResponse struct {
	Scheduled   bool       `json:"scheduled"`
	NextRefresh *time.Time `json:"next_refresh,omitempty"`
}

// StatsResponse is the JSON response for GET /stats.
type StatsResponse struct {
	ProcessKey  string              `json:"process_key"`
	Stages      map[string]int      `json:"stages"`
	RefreshedAt *time.Time          `json:"refreshed_at,omitempty"`
	Next        NextRefreshResponse `json:"next"`
}

// StatsHandler serves the per-stage event counts last computed by the
// stats reporter.
type StatsHandler struct {
	provider   StatsProvider
	processKey string
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(provider StatsProvider, processKey string) *StatsHandler {
	return &StatsHandler{
		provider:   provider,
		processKey: processKey,
	}
}

// ServeHTTP implements http.Handler.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	counts, refreshedAt := h.provider.Stats()
	if counts == nil {
		counts = map[string]int{}
	}

	resp := StatsResponse{
		ProcessKey: h.processKey,
		Stages:     counts,
	}
	if !refreshedAt.IsZero() {
		resp.RefreshedAt = &refreshedAt
	}
	if next := h.provider.NextRefresh(); next != nil {
		resp.Next = NextRefreshResponse{Scheduled: true, NextRefresh: next}
	}

	writeJSON(w, http.StatusOK, resp)
}
