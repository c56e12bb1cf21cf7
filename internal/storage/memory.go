package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryStore keeps objects in process memory. Used by tests and the
// "memory" driver; contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

// Put reads the whole reader and stores a copy under key.
func (m *MemoryStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("put object %q: got %d bytes, want %d", key, len(data), size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Key: key, Data: data, ContentType: contentType}
	return nil
}

// Get returns the object stored under key.
func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys returns all stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
