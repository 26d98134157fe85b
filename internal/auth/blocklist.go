package auth

import (
	"context"
	"fmt"
	"time"

	"fishtopia_backend/internal/platform/cache"
)

// RevocationList remembers when a user signed out everywhere, so ID tokens
// issued before that moment are refused until they expire on their own.
type RevocationList interface {
	Revoke(ctx context.Context, uid string, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, uid string) (time.Time, bool, error)
}

// CacheRevocationList is a RevocationList stored in the shared cache. With
// the redis backend every replica sees the same revocations and they outlive
// restarts; the memory backend only covers the current process.
type CacheRevocationList struct {
	cache cache.Cache
}

// NewCacheRevocationList creates a revocation list on c.
func NewCacheRevocationList(c cache.Cache) *CacheRevocationList {
	return &CacheRevocationList{cache: c}
}

func revocationKey(uid string) string {
	return "revoked:" + uid
}

// Revoke records the revocation time for ttl, which should cover the
// lifetime of any token issued before at.
func (l *CacheRevocationList) Revoke(ctx context.Context, uid string, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := at.UTC().MarshalText()
	if err != nil {
		return fmt.Errorf("encoding revocation time: %w", err)
	}
	if err := l.cache.Set(ctx, revocationKey(uid), raw, ttl); err != nil {
		return fmt.Errorf("storing revocation for %s: %w", uid, err)
	}
	return nil
}

func (l *CacheRevocationList) RevokedAt(ctx context.Context, uid string) (time.Time, bool, error) {
	raw, found, err := l.cache.Get(ctx, revocationKey(uid))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading revocation for %s: %w", uid, err)
	}
	if !found {
		return time.Time{}, false, nil
	}
	var at time.Time
	if err := at.UnmarshalText(raw); err != nil {
		return time.Time{}, false, fmt.Errorf("decoding revocation for %s: %w", uid, err)
	}
	return at, true, nil
}
