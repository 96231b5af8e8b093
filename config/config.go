// Package config loads the workbench.yaml configuration file: store
// backend selection, connection endpoints, and the poller cadence.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the top-level workbench configuration.
type Config struct {
	// Store selects and configures the object store backend.
	Store StoreConfig `yaml:"store"`

	// Subscriptions configures the collection subscription poller.
	Subscriptions SubscriptionConfig `yaml:"subscriptions,omitempty"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "redis". Defaults to "memory".
	Backend string `yaml:"backend"`

	// Redis configures the Redis connection when Backend is "redis".
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig is the Redis connection configuration.
type RedisConfig struct {
	// URL is the connection string (e.g. "redis://localhost:6379").
	URL string `yaml:"url"`

	// Namespace prefixes every key. Defaults to "workbench".
	Namespace string `yaml:"namespace,omitempty"`
}

// SubscriptionConfig configures the poller and its etcd-backed record
// store.
type SubscriptionConfig struct {
	// Interval is the poll cadence. Defaults to 30m.
	Interval time.Duration `yaml:"interval,omitempty"`

	// EtcdEndpoints lists the etcd cluster endpoints for subscription
	// records. Empty means subscriptions are kept in memory.
	EtcdEndpoints []string `yaml:"etcd_endpoints,omitempty"`

	// EtcdNamespace prefixes subscription keys. Defaults to
	// "workbench".
	EtcdNamespace string `yaml:"etcd_namespace,omitempty"`
}

// Default returns the configuration used when no file is given: an
// in-memory store and the default poll cadence.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Backend: BackendMemory},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", BackendMemory:
	case BackendRedis:
		if c.Store.Redis.URL == "" {
			return fmt.Errorf("store.redis.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Subscriptions.Interval < 0 {
		return fmt.Errorf("subscriptions.interval cannot be negative")
	}
	return nil
}
