// Package handlers provides HTTP handlers for the procsim server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"
	"time"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/config"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/seed"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// ProcessProvider serves process definitions.
type ProcessProvider interface {
	DefaultKey() string
	Get(ctx context.Context, key string) (*process.Process, error)
}

// EventAppender records activity events.
type EventAppender interface {
	Append(ctx context.Context, ev activity.NewEvent) (string, error)
}

// EventQuerier reads activity events.
type EventQuerier interface {
	Query(ctx context.Context, f activity.Filter) ([]activity.Event, error)
}

// Seeder seeds the default process and illustrative activity.
type Seeder interface {
	Seed(ctx context.Context) (seed.Result, error)
}

// StoreInspector exposes store diagnostics.
type StoreInspector interface {
	Driver() string
	Ping(ctx context.Context) error
	Collections(ctx context.Context) ([]string, error)
}

// StatsProvider provides the most recent per-stage event counts.
type StatsProvider interface {
	Stats() (counts map[string]int, refreshedAt time.Time)
	NextRefresh() *time.Time
}
