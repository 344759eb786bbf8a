package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in process memory. Values do not survive a
// restart; it backs tests and the "memory" backend.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	hub    hub
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	m.hub.notify(Change{Key: key, Value: value})
	return nil
}

// Subscribe implements Store.
func (m *MemoryStore) Subscribe(fn func(Change)) func() {
	return m.hub.subscribe(fn)
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
