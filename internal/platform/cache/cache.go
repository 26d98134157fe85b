// Package cache provides the short-lived key/value cache used by the read
// models. Redis backs it in production; an in-process cache serves single
// instances and tests.
package cache

import (
	"context"
	"fmt"
	"time"

	"fishtopia_backend/internal/config"

	"go.uber.org/zap"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true, or false when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the cache selected by CACHE_BACKEND. The returned func releases it.
func New(cfg *config.Config, logger *zap.Logger) (Cache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		rc, err := NewRedisCache(RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() {
			if err := rc.Close(); err != nil {
				logger.Warn("Error closing redis client", zap.Error(err))
			}
		}, nil
	case "memory", "":
		return NewMemoryCache(cfg.ProfileCacheTTL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
