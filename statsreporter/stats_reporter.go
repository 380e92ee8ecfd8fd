// Package statsreporter keeps per-stage activity counts for the served
// process and publishes them as gauges.
//
// Refresh recomputes the counts from the activity log. It is run by a cron
// trigger in the server and once at startup. Readers get a copy of the last
// snapshot, so the HTTP path never touches the store.
//
// THREAD SAFETY:
// All methods are thread-safe and can be called from concurrent goroutines.
package statsreporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Counter counts activity events.
type Counter interface {
	Count(ctx context.Context, f activity.Filter) (int, error)
}

// ProcessProvider describes the served process.
type ProcessProvider interface {
	DefaultKey() string
	StageKeys() []string
}

// StatsReporter holds the last computed per-stage event counts.
type StatsReporter struct {
	processes ProcessProvider
	counter   Counter
	logger    *slog.Logger
	now       func() time.Time

	stageEvents metrics.GaugeVec
	totalEvents metrics.Gauge

	mu          sync.RWMutex
	counts      map[string]int // protected by mu
	refreshedAt time.Time      // protected by mu
}

// New creates a StatsReporter and registers its gauges with registry.
func New(processes ProcessProvider, counter Counter, registry metrics.Registry, logger *slog.Logger) (*StatsReporter, error) {
	stageEvents, err := registry.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stage_events",
		Help: "Number of activity events recorded per stage",
	}, []string{"process_key", "stage_key"})
	if err != nil {
		return nil, fmt.Errorf("failed to register stage gauge: %w", err)
	}
	totalEvents, err := registry.NewGauge(prometheus.GaugeOpts{
		Name: "process_events",
		Help: "Number of activity events recorded for the served process",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register process gauge: %w", err)
	}

	return &StatsReporter{
		processes:   processes,
		counter:     counter,
		logger:      logger,
		now:         time.Now,
		stageEvents: stageEvents,
		totalEvents: totalEvents,
	}, nil
}

// Refresh recomputes the counts for every stage of the served process.
// The previous snapshot is kept if any count fails.
func (r *StatsReporter) Refresh(ctx context.Context) error {
	key := r.processes.DefaultKey()
	stages := r.processes.StageKeys()

	counts := make(map[string]int, len(stages))
	total := 0
	for _, stage := range stages {
		n, err := r.counter.Count(ctx, activity.Filter{ProcessKey: key, StageKey: stage})
		if err != nil {
			return fmt.Errorf("failed to count stage %q: %w", stage, err)
		}
		counts[stage] = n
		total += n
	}

	for stage, n := range counts {
		r.stageEvents.With(prometheus.Labels{"process_key": key, "stage_key": stage}).Set(float64(n))
	}
	r.totalEvents.Set(float64(total))

	r.mu.Lock()
	r.counts = counts
	r.refreshedAt = r.now().UTC()
	r.mu.Unlock()

	r.logger.Debug("refreshed stage stats", "process_key", key, "events", total)
	return nil
}

// Stats returns a copy of the last computed counts and when they were
// computed. The time is zero if Refresh has never succeeded.
func (r *StatsReporter) Stats() (map[string]int, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]int, len(r.counts))
	for stage, n := range r.counts {
		result[stage] = n
	}
	return result, r.refreshedAt
}
