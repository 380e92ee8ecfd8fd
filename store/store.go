// Package store provides the document store behind the process catalog and
// the activity log.
//
// The store holds two collections: processes, keyed uniquely by process key,
// and activity_logs, an append-only list of events. Implementations:
//
//   - MemoryStore keeps documents in process memory (tests, demos)
//   - SQLStore persists to SQLite (modernc.org/sqlite) or PostgreSQL (lib/pq)
//   - Unavailable fails every call with ErrUnavailable (no store configured)
//
// Uniqueness of process keys is enforced by the store itself, so inserting a
// process is an insert-if-absent operation that is safe under concurrency.
//
// # Example
//
//	st, err := store.Open(ctx, cfg.Store, logger)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	inserted, err := st.InsertProcess(ctx, process.Default())
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/config"
	"github.com/nomis52/procsim/process"
)

// ErrUnavailable is returned when the store is not configured or cannot be reached.
var ErrUnavailable = errors.New("store unavailable")

// Collection names.
const (
	ProcessesCollection    = "processes"
	ActivityLogsCollection = "activity_logs"
)

// Store is the document store used by the catalog and the activity log.
type Store interface {
	process.Store
	activity.Store

	// Driver names the implementation, e.g. "sqlite".
	Driver() string
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
	// Collections lists the collections (tables) present in the store.
	Collections(ctx context.Context) ([]string, error)
	// Close releases the underlying connection.
	Close() error
}

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverNone:
		logger.Warn("no store configured, all store operations will fail")
		return Unavailable{}, nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Unavailable is the store used when none is configured.
type Unavailable struct{}

func (Unavailable) InsertProcess(context.Context, process.Process) (bool, error) {
	return false, ErrUnavailable
}

func (Unavailable) FindProcess(context.Context, string) (*process.Process, error) {
	return nil, ErrUnavailable
}

func (Unavailable) InsertEvent(context.Context, activity.Event) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) FindEvents(context.Context, activity.Filter) ([]activity.Event, error) {
	return nil, ErrUnavailable
}

func (Unavailable) CountEvents(context.Context, activity.Filter) (int, error) {
	return 0, ErrUnavailable
}

func (Unavailable) Driver() string { return config.DriverNone }

func (Unavailable) Ping(context.Context) error { return ErrUnavailable }

func (Unavailable) Collections(context.Context) ([]string, error) { return nil, ErrUnavailable }

func (Unavailable) Close() error { return nil }
