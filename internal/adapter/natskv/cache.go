// Package natskv keeps completed dispatch results in a NATS JetStream
// key-value bucket, the shared level of the result cache. Any instance can
// then answer a poll for a processing id it did not run.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Cache is a cache.Cache over one KV bucket. Entries expire with the
// bucket's TTL; the ttl passed to Set is not used.
type Cache struct {
	kv jetstream.KeyValue
}

// New returns a cache over kv.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := c.kv.Get(ctx, key)
	switch {
	case absent(err):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry.Value(), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := c.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

// Delete purges key, dropping its history along with the current value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.kv.Purge(ctx, key); err != nil && !absent(err) {
		return fmt.Errorf("kv purge %s: %w", key, err)
	}
	return nil
}

func absent(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}
