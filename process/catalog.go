package process

import (
	"context"
	"fmt"
	"log/slog"
)

// Store is the subset of the document store the catalog needs.
type Store interface {
	// InsertProcess inserts p unless a process with the same key exists.
	// It reports whether the document was inserted.
	InsertProcess(ctx context.Context, p Process) (bool, error)
	// FindProcess returns the process with the given key, or nil if absent.
	FindProcess(ctx context.Context, key string) (*Process, error)
}

// Catalog serves process definitions, seeding the default one on first read.
type Catalog struct {
	store      Store
	definition Process
	logger     *slog.Logger
}

// NewCatalog creates a Catalog that seeds definition when it is first requested.
func NewCatalog(store Store, definition Process, logger *slog.Logger) *Catalog {
	return &Catalog{
		store:      store,
		definition: definition,
		logger:     logger,
	}
}

// DefaultKey returns the key of the process the catalog can seed.
func (c *Catalog) DefaultKey() string {
	return c.definition.Key
}

// StageKeys returns the stage keys of the default definition in order.
// It does not touch the store.
func (c *Catalog) StageKeys() []string {
	keys := make([]string, 0, len(c.definition.Stages))
	for _, st := range c.definition.Stages {
		keys = append(keys, st.Key)
	}
	return keys
}

// Get returns the process with the given key. If it is absent and key is the
// default key, the default definition is inserted first.
func (c *Catalog) Get(ctx context.Context, key string) (*Process, error) {
	p, err := c.store.FindProcess(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find process %q: %w", key, err)
	}
	if p != nil {
		return p, nil
	}
	if key != c.definition.Key {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	if _, err := c.EnsureSeeded(ctx); err != nil {
		return nil, err
	}

	// Re-read so every caller sees the document that won the insert.
	p, err = c.store.FindProcess(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find process %q: %w", key, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %q vanished after seeding", ErrNotFound, key)
	}
	return p, nil
}

// EnsureSeeded inserts the default definition if it is absent and reports
// whether this call inserted it.
func (c *Catalog) EnsureSeeded(ctx context.Context) (bool, error) {
	inserted, err := c.store.InsertProcess(ctx, c.definition)
	if err != nil {
		return false, fmt.Errorf("failed to seed process %q: %w", c.definition.Key, err)
	}
	if inserted {
		c.logger.Info("seeded process definition",
			"process_key", c.definition.Key,
			"stages", len(c.definition.Stages),
		)
	}
	return inserted, nil
}
