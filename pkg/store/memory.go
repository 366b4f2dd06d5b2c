package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory expiring store. It is the default
// backend and suitable for single-server deployments; for
// multi-server deployments use RedisStore.
type MemoryStore struct {
	mu     sync.Mutex
	lists  map[string]*storedList
	closed bool
	done   chan struct{}
}

type storedList struct {
	items     [][]byte
	expiresAt time.Time
}

// MemoryStoreOption configures MemoryStore behavior.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval sets how often expired keys are cleaned up.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.cleanupInterval = d
	}
}

// NewMemoryStore creates a new in-memory expiring store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := &memoryStoreConfig{
		cleanupInterval: 1 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store := &MemoryStore{
		lists: make(map[string]*storedList),
		done:  make(chan struct{}),
	}

	go store.cleanupLoop(cfg.cleanupInterval)
	return store
}

// Append adds one item under the store's lock, so the append and the
// returned length are a single read-modify-write.
func (m *MemoryStore) Append(ctx context.Context, key string, item []byte, ttl time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	l := m.live(key)
	if l == nil {
		l = &storedList{}
		m.lists[key] = l
	}
	l.items = append(l.items, copyBytes(item))
	l.expiresAt = time.Now().Add(ttl)
	return len(l.items), nil
}

// GetList returns a copy of the list at key.
func (m *MemoryStore) GetList(ctx context.Context, key string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	l := m.live(key)
	if l == nil {
		return nil, nil
	}

	items := make([][]byte, len(l.items))
	for i, item := range l.items {
		items[i] = copyBytes(item)
	}
	return items, nil
}

// SetList replaces the list at key.
func (m *MemoryStore) SetList(ctx context.Context, key string, items [][]byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if len(items) == 0 {
		delete(m.lists, key)
		return nil
	}

	stored := make([][]byte, len(items))
	for i, item := range items {
		stored[i] = copyBytes(item)
	}
	m.lists[key] = &storedList{items: stored, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes a key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.lists, key)
	return nil
}

// Close stops the cleanup goroutine and drops all keys.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.lists = nil
	return nil
}

// live returns the unexpired list for key, dropping it when expired.
// Caller holds the lock.
func (m *MemoryStore) live(key string) *storedList {
	l, ok := m.lists[key]
	if !ok {
		return nil
	}
	if time.Now().After(l.expiresAt) {
		delete(m.lists, key)
		return nil
	}
	return l
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *MemoryStore) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	now := time.Now()
	for key, l := range m.lists {
		if now.After(l.expiresAt) {
			delete(m.lists, key)
		}
	}
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
