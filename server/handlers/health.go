package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/procsim/buildinfo"
)

const maxHealthCollections = 10

// HealthResponse describes backend and store connectivity.
type HealthResponse struct {
	Backend          string              `json:"backend"`
	Database         string              `json:"database"`
	Driver           string              `json:"driver"`
	ConnectionStatus string              `json:"connection_status"`
	Collections      []string            `json:"collections"`
	Error            string              `json:"error,omitempty"`
	Build            buildinfo.Properties `json:"build"`
}

// HealthHandler reports store diagnostics. It always answers 200 so the
// body can describe a broken store.
type HealthHandler struct {
	logger *slog.Logger
	store  StoreInspector
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *slog.Logger, store StoreInspector) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		store:  store,
	}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Backend:          "running",
		Database:         "not available",
		Driver:           h.store.Driver(),
		ConnectionStatus: "not connected",
		Collections:      []string{},
		Build:            buildinfo.Get(),
	}

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("store ping failed", "driver", resp.Driver, "error", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Database = "available"
	resp.ConnectionStatus = "connected"

	collections, err := h.store.Collections(r.Context())
	if err != nil {
		h.logger.Warn("failed to list collections", "error", err)
		resp.Error = err.Error()
	}
	if len(collections) > maxHealthCollections {
		collections = collections[:maxHealthCollections]
	}
	if collections != nil {
		resp.Collections = collections
	}

	writeJSON(w, http.StatusOK, resp)
}
