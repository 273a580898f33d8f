// Package cache provides windowed request counters used for rate
// limiting the HTTP surface.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// Counter tracks request counts within rolling time windows.
type Counter interface {
	// Increment atomically increments the counter for key and returns
	// the new count. The first increment starts a window that expires
	// after the given duration.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// Ping checks backend health.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// New creates a counter based on configuration.
func New(cfg domain.CacheConfig) (Counter, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCounter(cfg.LocalMaxEntries), nil

	case "redis":
		return NewRedisCounter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
