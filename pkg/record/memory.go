package record

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory record store. It is the default backend
// for tests and single-process deployments; keys are generated UUIDs.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]map[string]any
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]map[string]any)}
}

// Create inserts a new row and returns its generated key.
func (m *MemoryStore) Create(ctx context.Context, fields map[string]any) (any, error) {
	key := uuid.NewString()

	row := make(map[string]any, len(fields))
	for k, v := range fields {
		row[k] = v
	}

	m.mu.Lock()
	m.rows[key] = row
	m.mu.Unlock()
	return key, nil
}

// Update overwrites fields on an existing row.
func (m *MemoryStore) Update(ctx context.Context, key any, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[keyString(key)]
	if !ok {
		return fmt.Errorf("record: update %v: %w", key, ErrNotFound)
	}
	for k, v := range fields {
		row[k] = v
	}
	return nil
}

// Get returns a copy of the row for key, or nil when absent.
func (m *MemoryStore) Get(key any) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[keyString(key)]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Len returns the number of stored rows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}
