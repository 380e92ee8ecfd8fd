package seed

import (
	"context"
	"sync"
	"testing"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/logging"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *store.MemoryStore
	log     *activity.Log
	seeder  *Seeder
	catalog *process.Catalog
}

func newFixture() fixture {
	st := store.NewMemoryStore()
	catalog := process.NewCatalog(st, process.Default(), logging.Discard())
	log := activity.NewLog(st, logging.Discard())
	return fixture{
		store:   st,
		log:     log,
		catalog: catalog,
		seeder:  New(catalog, log, logging.Discard()),
	}
}

func TestSeed_FirstCallSeedsEverything(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Seeded: true, LogsSeeded: true}, res)

	n, err := f.log.Count(ctx, activity.Filter{ProcessKey: "default"})
	require.NoError(t, err)
	assert.Equal(t, len(Events("default")), n)
}

func TestSeed_SecondCallIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.seeder.Seed(ctx)
	require.NoError(t, err)

	res, err := f.seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	inserted, err := f.store.InsertProcess(ctx, process.Default())
	require.NoError(t, err)
	assert.False(t, inserted, "exactly one default process exists")

	n, err := f.log.Count(ctx, activity.Filter{ProcessKey: "default"})
	require.NoError(t, err)
	assert.Equal(t, len(Events("default")), n, "illustrative events are not duplicated")
}

func TestSeed_ConcurrentCalls(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.seeder.Seed(ctx)
			assert.NoError(t, err)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	seeded, logsSeeded := 0, 0
	for _, r := range results {
		if r.Seeded {
			seeded++
		}
		if r.LogsSeeded {
			logsSeeded++
		}
	}
	assert.Equal(t, 1, seeded)
	assert.Equal(t, 1, logsSeeded)
}

func TestSeed_ProcessAlreadyReadStillSeedsLogs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.catalog.Get(ctx, "default")
	require.NoError(t, err)

	res, err := f.seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Seeded: false, LogsSeeded: true}, res)
}

func TestSeed_DeliveryFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.seeder.Seed(ctx)
	require.NoError(t, err)

	events, err := f.log.Query(ctx, activity.Filter{ProcessKey: "default", StageKey: "delivery"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "delivery", e.StageKey)
	}
	assert.Equal(t, "pm.alice left a note: handover scheduled", events[0].Message)
	assert.Equal(t, "pm.alice uploaded handover_pack.zip", events[1].Message)
	assert.False(t, events[0].CreatedAt.Before(events[1].CreatedAt))
}

func TestSeed_StoreUnavailable(t *testing.T) {
	st := store.Unavailable{}
	seeder := New(
		process.NewCatalog(st, process.Default(), logging.Discard()),
		activity.NewLog(st, logging.Discard()),
		logging.Discard(),
	)

	_, err := seeder.Seed(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestEvents_CoverEveryStageAndType(t *testing.T) {
	def := process.Default()
	events := Events(def.Key)

	stages := make(map[string]bool)
	types := make(map[activity.Type]bool)
	for _, e := range events {
		assert.Equal(t, def.Key, e.ProcessKey)
		stage, ok := def.Stage(e.StageKey)
		require.True(t, ok, e.StageKey)

		found := false
		for _, it := range stage.Items {
			if it.Key == e.ItemKey {
				found = true
			}
		}
		assert.True(t, found, "item %s belongs to stage %s", e.ItemKey, e.StageKey)

		stages[e.StageKey] = true
		types[e.Type] = true
	}

	assert.Len(t, stages, len(def.Stages))
	for _, typ := range activity.Types {
		assert.True(t, types[typ], "type %s is used", typ)
	}
}
