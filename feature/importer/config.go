package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rental-directory/feature/importer/session"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds configuration for imports.
type Config struct {
	// SessionBackend selects where suspended imports live: memory or redis.
	SessionBackend string `mapstructure:"session_backend" default:"memory"`
	// SessionTTLMinutes is how long a suspended import can be resumed.
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes" default:"30"`
	// SessionMax bounds the number of sessions kept in memory.
	SessionMax int `mapstructure:"session_max" default:"256"`
	// SnapshotTTLSeconds is how long the catalog snapshot is reused.
	SnapshotTTLSeconds int `mapstructure:"snapshot_ttl_seconds" default:"30"`
	// RedisHost is the Redis server host.
	RedisHost string `mapstructure:"redis_host" default:"localhost"`
	// RedisPort is the Redis server port.
	RedisPort int `mapstructure:"redis_port" default:"6379"`
	// RedisPassword is the Redis password.
	RedisPassword string `mapstructure:"redis_password" default:""`
	// RedisDB is the Redis database number.
	RedisDB int `mapstructure:"redis_db" default:"0"`
}

// SessionTTL returns the session lifetime.
func (c Config) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SnapshotTTL returns the catalog snapshot lifetime. Zero disables caching.
func (c Config) SnapshotTTL() time.Duration {
	if c.SnapshotTTLSeconds < 0 {
		return 0
	}
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// NewSessionStore creates the configured session store.
func NewSessionStore(ctx context.Context, cfg Config) (session.Store, error) {
	switch strings.ToLower(cfg.SessionBackend) {
	case "", BackendMemory:
		return session.NewMemoryStore(cfg.SessionMax, cfg.SessionTTL()), nil
	case BackendRedis:
		return session.NewRedisStore(ctx, session.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.SessionTTL())
	default:
		return nil, fmt.Errorf("unsupported session backend %q", cfg.SessionBackend)
	}
}
