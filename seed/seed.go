// Package seed materialises the default process and a fixed set of
// illustrative activity so a fresh deployment has something to show.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/process"
)

// Catalog is the part of process.Catalog the seeder uses.
type Catalog interface {
	DefaultKey() string
	EnsureSeeded(ctx context.Context) (bool, error)
}

// Log is the part of activity.Log the seeder uses.
type Log interface {
	Append(ctx context.Context, ev activity.NewEvent) (string, error)
	Count(ctx context.Context, f activity.Filter) (int, error)
}

// Result reports what a Seed call inserted.
type Result struct {
	Seeded     bool `json:"seeded"`
	LogsSeeded bool `json:"logs_seeded"`
}

// Seeder seeds the default process and its illustrative activity.
type Seeder struct {
	catalog Catalog
	log     Log
	logger  *slog.Logger

	mu sync.Mutex
}

// New creates a Seeder.
func New(catalog Catalog, log Log, logger *slog.Logger) *Seeder {
	return &Seeder{
		catalog: catalog,
		log:     log,
		logger:  logger,
	}
}

// Seed inserts the default process if absent and, when the process has no
// activity yet, appends the illustrative events in order.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	seeded, err := s.catalog.EnsureSeeded(ctx)
	if err != nil {
		return res, err
	}
	res.Seeded = seeded

	key := s.catalog.DefaultKey()
	n, err := s.log.Count(ctx, activity.Filter{ProcessKey: key})
	if err != nil {
		return res, err
	}
	if n > 0 {
		s.logger.Debug("activity already present, skipping illustrative events", "process_key", key, "events", n)
		return res, nil
	}

	for _, ev := range Events(key) {
		if _, err := s.log.Append(ctx, ev); err != nil {
			return res, fmt.Errorf("failed to seed activity: %w", err)
		}
	}
	res.LogsSeeded = true

	s.logger.Info("seeded illustrative activity", "process_key", key, "events", len(Events(key)))
	return res, nil
}

// Events returns the illustrative events for processKey, oldest first. They
// touch every stage of process.Default and use every event type.
func Events(processKey string) []activity.NewEvent {
	reqSize := int64(248_832)
	packSize := int64(5_242_880)

	events := []activity.NewEvent{
		{
			StageKey: "initiation",
			ItemKey:  "requirements",
			Type:     activity.TypeUpload,
			Actor:    "pm.alice",
			Meta:     activity.UploadMeta{Filename: "requirements_v1.pdf", Size: &reqSize},
		},
		{
			StageKey: "initiation",
			ItemKey:  "requirements",
			Type:     activity.TypeAssignment,
			Actor:    "admin",
			Meta:     activity.AssignmentMeta{Assignee: "qa.bob"},
		},
		{
			StageKey: "initiation",
			ItemKey:  "requirements",
			Type:     activity.TypeDownload,
			Actor:    "qa.bob",
		},
		{
			StageKey: "review",
			ItemKey:  "doc_review",
			Type:     activity.TypeReview,
			Actor:    "qa.bob",
		},
		{
			StageKey: "review",
			ItemKey:  "doc_review",
			Type:     activity.TypeNote,
			Actor:    "qa.lead",
			Meta:     activity.ActionMeta("please clarify scope"),
		},
		{
			StageKey: "review",
			ItemKey:  "doc_review",
			Type:     activity.TypeDecision,
			Actor:    "qa.lead",
			Meta:     activity.ActionMeta("approved"),
		},
		{
			StageKey: "delivery",
			ItemKey:  "handover",
			Type:     activity.TypeUpload,
			Actor:    "pm.alice",
			Meta:     activity.UploadMeta{Filename: "handover_pack.zip", Size: &packSize},
		},
		{
			StageKey: "delivery",
			ItemKey:  "handover",
			Type:     activity.TypeNote,
			Actor:    "pm.alice",
			Meta:     activity.ActionMeta("handover scheduled"),
		},
	}
	for i := range events {
		events[i].ProcessKey = processKey
	}
	return events
}

var _ Catalog = (*process.Catalog)(nil)
var _ Log = (*activity.Log)(nil)
