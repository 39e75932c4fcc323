package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryKV implements an in-memory KV for testing/development.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryKV creates a new in-memory KV store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string][]byte)}
}

// Get returns the value for key.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true, nil
}

// Put stores value under key.
func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	m.entries[key] = copied
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// List returns all keys with the given prefix in lexical order.
func (m *MemoryKV) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryKV) Close() error {
	return nil
}

// Size returns the number of stored entries.
func (m *MemoryKV) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
