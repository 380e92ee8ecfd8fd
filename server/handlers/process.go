package handlers

import (
	"log/slog"
	"net/http"
)

// ProcessHandler serves the default process definition, seeding it on first read.
type ProcessHandler struct {
	logger   *slog.Logger
	provider ProcessProvider
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(logger *slog.Logger, provider ProcessProvider) *ProcessHandler {
	return &ProcessHandler{
		logger:   logger,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *ProcessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.provider.Get(r.Context(), h.provider.DefaultKey())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
