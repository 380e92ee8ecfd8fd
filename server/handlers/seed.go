package handlers

import (
	"log/slog"
	"net/http"
)

// SeedHandler seeds the default process and illustrative activity.
type SeedHandler struct {
	logger *slog.Logger
	seeder Seeder
}

// NewSeedHandler creates a new SeedHandler.
func NewSeedHandler(logger *slog.Logger, seeder Seeder) *SeedHandler {
	return &SeedHandler{
		logger: logger,
		seeder: seeder,
	}
}

// ServeHTTP implements http.Handler.
func (h *SeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h.seeder.Seed(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
