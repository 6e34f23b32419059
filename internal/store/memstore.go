package store

import (
	"sync"
	"time"

	"opnet/internal/config"
)

// MemStore is the in-process Store: a mutex-guarded map. It backs
// single-process runs directly and is the authoritative copy behind the
// rpc Server in multiprocessing runs.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	writes  uint64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]entry)}
}

// Get implements Store.
func (s *MemStore) Get(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	return e.value, nil
}

// Set implements Store. Last write wins.
func (s *MemStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	s.entries[key] = entry{
		value:   value,
		version: s.writes,
		wroteAt: time.Now(),
	}
	return nil
}

// GetMany implements Store. The bindings resolve against one consistent view
// of the store.
func (s *MemStore) GetMany(bindings []config.Binding) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make(map[string]any, len(bindings))
	for _, b := range bindings {
		e, ok := s.entries[b.Source]
		if !ok {
			return nil, &NotFoundError{Key: b.Source}
		}
		args[b.Dest] = e.value
	}
	return args, nil
}

// Exists implements Store.
func (s *MemStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[key]
	return ok
}

// Snapshot implements Store.
func (s *MemStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.entries))
	for k, e := range s.entries {
		out[k] = e.value
	}
	return out
}

// Version returns the write version of a key for diagnostics, or zero when
// the key is absent.
func (s *MemStore) Version(key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries[key].version
}

// Reset discards all entries and reseeds the store. The variation driver
// uses it between repeat groups.
func (s *MemStore) Reset(seed map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]entry, len(seed))
	s.writes = 0
	now := time.Now()
	for k, v := range seed {
		s.writes++
		s.entries[k] = entry{value: v, version: s.writes, wroteAt: now}
	}
}
