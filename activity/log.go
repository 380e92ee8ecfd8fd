package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nomis52/procsim/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Store is the subset of the document store the log needs.
type Store interface {
	// InsertEvent stores e and returns its newly assigned ID. e.ID is ignored.
	InsertEvent(ctx context.Context, e Event) (string, error)
	// FindEvents returns matching events ordered by CreatedAt, newest first.
	FindEvents(ctx context.Context, f Filter) ([]Event, error)
	// CountEvents returns the number of matching events.
	CountEvents(ctx context.Context, f Filter) (int, error)
}

// Log is the append-only activity log.
type Log struct {
	store    Store
	logger   *slog.Logger
	now      func() time.Time
	appended metrics.CounterVec

	mu   sync.Mutex // serializes appends
	last time.Time  // protected by mu
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithMetricsRegistry registers the appended-events counter with registry.
func WithMetricsRegistry(registry metrics.Registry) Option {
	return func(l *Log) {
		counter, err := registry.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_events_appended_total",
			Help: "Number of activity events appended, by type",
		}, []string{"type"})
		if err != nil {
			l.logger.Warn("failed to register activity counter", "error", err)
			return
		}
		l.appended = counter
	}
}

// NewLog creates a Log backed by store.
func NewLog(store Store, logger *slog.Logger, opts ...Option) *Log {
	l := &Log{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append validates ev, derives its message and timestamp and stores it.
// It returns the ID assigned by the store.
func (l *Log) Append(ctx context.Context, ev NewEvent) (string, error) {
	if !ev.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, ev.Type)
	}

	e := Event{
		ProcessKey: ev.ProcessKey,
		StageKey:   ev.StageKey,
		ItemKey:    ev.ItemKey,
		Type:       ev.Type,
		Message:    Message(ev.Type, ev.Actor, ev.Meta),
		Actor:      ev.Actor,
		Meta:       ev.Meta,
	}

	// CreatedAt must follow insertion order, so stamping and inserting
	// happen under one lock.
	l.mu.Lock()
	e.CreatedAt = l.timestamp()
	id, err := l.store.InsertEvent(ctx, e)
	l.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to append %s event: %w", ev.Type, err)
	}

	if l.appended != nil {
		l.appended.With(prometheus.Labels{"type": string(ev.Type)}).Inc()
	}
	l.logger.Debug("event appended",
		"id", id,
		"type", ev.Type,
		"process_key", ev.ProcessKey,
		"stage_key", ev.StageKey,
		"item_key", ev.ItemKey,
		"actor", ev.Actor,
	)
	return id, nil
}

// Query returns all events matching f, newest first.
func (l *Log) Query(ctx context.Context, f Filter) ([]Event, error) {
	events, err := l.store.FindEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// Count returns the number of events matching f.
func (l *Log) Count(ctx context.Context, f Filter) (int, error) {
	n, err := l.store.CountEvents(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// timestamp returns the current UTC time, never earlier than the previous one.
// l.mu must be held.
func (l *Log) timestamp() time.Time {
	now := l.now().UTC()
	if now.Before(l.last) {
		now = l.last
	}
	l.last = now
	return now
}
