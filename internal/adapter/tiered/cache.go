// Package tiered layers the in-process result cache over the shared one.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/Principal/internal/port/cache"
)

// Cache reads from local first and falls back to shared, copying shared
// hits into local for backfillTTL. The shared level is best effort: its
// failures are logged and reported as misses, since every result this
// instance wrote is also in local.
type Cache struct {
	local       cache.Cache
	shared      cache.Cache
	backfillTTL time.Duration

	lookups singleflight.Group
}

// New returns a cache over local and shared.
func New(local, shared cache.Cache, backfillTTL time.Duration) *Cache {
	return &Cache{local: local, shared: shared, backfillTTL: backfillTTL}
}

type hit struct {
	data  []byte
	found bool
}

// Get returns the local value, or the shared one. Clients polling the same
// processing id concurrently share a single shared lookup.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, found, err := c.local.Get(ctx, key)
	if err != nil || found {
		return data, found, err
	}

	v, _, _ := c.lookups.Do(key, func() (any, error) {
		data, found, err := c.shared.Get(ctx, key)
		if err != nil {
			slog.Warn("shared cache lookup failed", "key", key, "error", err)
			return hit{}, nil
		}
		if found {
			if err := c.local.Set(ctx, key, data, c.backfillTTL); err != nil {
				slog.Debug("local backfill rejected", "key", key, "error", err)
			}
		}
		return hit{data: data, found: found}, nil
	})
	h := v.(hit)
	return h.data, h.found, nil
}

// Set stores value locally, then publishes it to the shared level.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := c.shared.Set(ctx, key, value, ttl); err != nil {
		slog.Warn("shared cache write failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes key from both levels.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	return c.shared.Delete(ctx, key)
}
