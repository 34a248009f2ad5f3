package database

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores a copy of value
func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.values[key] = v
	m.mu.Unlock()
	return nil
}

// Update runs fn under the store lock
func (m *MemoryStore) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if v, ok := m.values[key]; ok {
		current = bytes.Clone(v)
		if current == nil {
			current = []byte{}
		}
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.values[key] = bytes.Clone(next)
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }
