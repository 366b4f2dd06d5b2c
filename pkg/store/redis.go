package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// appendScript pushes one entry and refreshes the key's TTL, then
// reports the new length, all server-side so the enqueue-then-length
// sequence is atomic per key.
// KEYS[1] = queue key
// ARGV[1] = encoded entry
// ARGV[2] = TTL in milliseconds
var appendScript = redis.NewScript(`
redis.call("RPUSH", KEYS[1], ARGV[1])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return redis.call("LLEN", KEYS[1])
`)

// RedisStore is an expiring store backed by Redis lists. It is the
// backend for multi-server deployments where independent callers
// share pending queues.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures RedisStore behavior.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default: "pulse:queue:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis-backed expiring store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "pulse:queue:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Append runs the append script, so the new length reflects exactly
// this append.
func (s *RedisStore) Append(ctx context.Context, key string, item []byte, ttl time.Duration) (int, error) {
	n, err := appendScript.Run(ctx, s.client, []string{s.key(key)}, item, ttl.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("store: redis append %q: %w", key, err)
	}
	return n, nil
}

// GetList returns every entry at key in order.
func (s *RedisStore) GetList(ctx context.Context, key string) ([][]byte, error) {
	raw, err := s.client.LRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis range %q: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	items := make([][]byte, len(raw))
	for i, v := range raw {
		items[i] = []byte(v)
	}
	return items, nil
}

// SetList replaces the whole list at key in one pipeline.
func (s *RedisStore) SetList(ctx context.Context, key string, items [][]byte, ttl time.Duration) error {
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(items) == 0 {
			return nil
		}
		vals := make([]any, len(items))
		for i, item := range items {
			vals[i] = item
		}
		pipe.RPush(ctx, k, vals...)
		pipe.PExpire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("store: redis delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
