package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/logging"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/seed"
	"github.com/nomis52/procsim/store"
	"github.com/stretchr/testify/require"
)

type deps struct {
	store   store.Store
	catalog *process.Catalog
	log     *activity.Log
	seeder  *seed.Seeder
}

func newDeps(st store.Store) deps {
	logger := logging.Discard()
	catalog := process.NewCatalog(st, process.Default(), logger)
	log := activity.NewLog(st, logger)
	return deps{
		store:   st,
		catalog: catalog,
		log:     log,
		seeder:  seed.New(catalog, log, logger),
	}
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
