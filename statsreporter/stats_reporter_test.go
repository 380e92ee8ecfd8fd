package statsreporter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/logging"
	"github.com/nomis52/procsim/metrics"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/seed"
	"github.com/nomis52/procsim/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsReporter_Refresh(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	catalog := process.NewCatalog(st, process.Default(), logging.Discard())
	log := activity.NewLog(st, logging.Discard())
	_, err := seed.New(catalog, log, logging.Discard()).Seed(ctx)
	require.NoError(t, err)

	registry, err := metrics.NewScrapeRegistry("procsim")
	require.NoError(t, err)

	reporter, err := New(catalog, log, registry, logging.Discard())
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reporter.now = func() time.Time { return fixed }

	counts, refreshedAt := reporter.Stats()
	assert.Empty(t, counts)
	assert.True(t, refreshedAt.IsZero())

	require.NoError(t, reporter.Refresh(ctx))

	counts, refreshedAt = reporter.Stats()
	assert.Equal(t, map[string]int{"initiation": 3, "review": 3, "delivery": 2}, counts)
	assert.Equal(t, fixed, refreshedAt)

	w := httptest.NewRecorder()
	registry.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `procsim_stage_events{process_key="default",stage_key="delivery"} 2`)
	assert.Contains(t, body, `procsim_process_events 8`)
}

func TestStatsReporter_StatsReturnsCopy(t *testing.T) {
	st := store.NewMemoryStore()
	catalog := process.NewCatalog(st, process.Default(), logging.Discard())
	log := activity.NewLog(st, logging.Discard())

	reporter, err := New(catalog, log, metrics.NoopRegistry{}, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, reporter.Refresh(context.Background()))

	counts, _ := reporter.Stats()
	assert.Equal(t, map[string]int{"initiation": 0, "review": 0, "delivery": 0}, counts)
	counts["review"] = 99

	again, _ := reporter.Stats()
	assert.Equal(t, 0, again["review"])

	p, err := st.FindProcess(context.Background(), "default")
	require.NoError(t, err)
	assert.Nil(t, p, "refreshing does not seed the process")
}

func TestStatsReporter_StoreUnavailableKeepsSnapshot(t *testing.T) {
	st := store.Unavailable{}
	reporter, err := New(
		process.NewCatalog(st, process.Default(), logging.Discard()),
		activity.NewLog(st, logging.Discard()),
		metrics.NoopRegistry{},
		logging.Discard(),
	)
	require.NoError(t, err)

	err = reporter.Refresh(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)

	counts, refreshedAt := reporter.Stats()
	assert.Empty(t, counts)
	assert.True(t, refreshedAt.IsZero())
}
