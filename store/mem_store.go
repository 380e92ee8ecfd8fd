package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/config"
	"github.com/nomis52/procsim/process"
)

// MemoryStore keeps documents in memory only (no persistence).
// Processes are held in encoded form so callers never share state with the store.
type MemoryStore struct {
	mu        sync.Mutex
	processes map[string][]byte // protected by mu
	events    []activity.Event  // protected by mu, insertion order
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		processes: make(map[string][]byte),
		events:    make([]activity.Event, 0),
	}
}

// InsertProcess stores p unless a process with the same key exists.
func (s *MemoryStore) InsertProcess(ctx context.Context, p process.Process) (bool, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("failed to encode process: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processes[p.Key]; exists {
		return false, nil
	}
	s.processes[p.Key] = doc
	return true, nil
}

// FindProcess returns the process with the given key, or nil if absent.
func (s *MemoryStore) FindProcess(ctx context.Context, key string) (*process.Process, error) {
	s.mu.Lock()
	doc, ok := s.processes[key]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	var p process.Process
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to decode process %q: %w", key, err)
	}
	return &p, nil
}

// InsertEvent appends e with a fresh ID.
func (s *MemoryStore) InsertEvent(ctx context.Context, e activity.Event) (string, error) {
	e.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	return e.ID, nil
}

// FindEvents returns matching events, newest first. Events with equal
// timestamps are returned in reverse insertion order.
func (s *MemoryStore) FindEvents(ctx context.Context, f activity.Filter) ([]activity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]activity.Event, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		if f.Matches(s.events[i]) {
			result = append(result, s.events[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CountEvents returns the number of matching events.
func (s *MemoryStore) CountEvents(ctx context.Context, f activity.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.events {
		if f.Matches(e) {
			n++
		}
	}
	return n, nil
}

// Driver returns "memory".
func (s *MemoryStore) Driver() string { return config.DriverMemory }

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Collections returns the fixed collection names.
func (s *MemoryStore) Collections(ctx context.Context) ([]string, error) {
	return []string{ActivityLogsCollection, ProcessesCollection}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
