// Package config loads the pulse.json server configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pulse.json"

	// DefaultListen is the default listen address.
	DefaultListen = "localhost:8026"

	// DefaultQueueTTLSeconds is the default pending queue lifetime.
	DefaultQueueTTLSeconds = 60
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config represents the complete pulse.json configuration.
type Config struct {
	// Listen is the address the server binds to.
	Listen string `json:"listen,omitempty"`

	// Store configures the shared pending-queue store.
	Store StoreConfig `json:"store,omitempty"`

	// QueueTTLSeconds is the pending queue lifetime in seconds.
	QueueTTLSeconds int `json:"queue_ttl_seconds,omitempty"`

	// StrictMethods makes unknown method calls an error instead of a
	// silent no-op.
	StrictMethods bool `json:"strict_methods,omitempty"`
}

// StoreConfig selects and configures the queue store backend.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string `json:"backend,omitempty"`

	// RedisAddr is the redis host:port, for the redis backend.
	RedisAddr string `json:"redis_addr,omitempty"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Listen:          DefaultListen,
		Store:           StoreConfig{Backend: BackendMemory},
		QueueTTLSeconds: DefaultQueueTTLSeconds,
	}
}

// Load reads the configuration file at path, applying defaults for
// absent fields. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendMemory
	}
	if cfg.QueueTTLSeconds <= 0 {
		cfg.QueueTTLSeconds = DefaultQueueTTLSeconds
	}

	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Store.RedisAddr == "" {
			return nil, fmt.Errorf("config: redis backend needs store.redis_addr")
		}
	default:
		return nil, fmt.Errorf("config: unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}

// QueueTTL returns the pending queue lifetime as a duration.
func (c *Config) QueueTTL() time.Duration {
	return time.Duration(c.QueueTTLSeconds) * time.Second
}
