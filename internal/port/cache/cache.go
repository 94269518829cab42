// Package cache defines the port interface for caching completed results.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the port interface for key-value caching.
// A miss is reported as found=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Typed stores JSON-encoded values of T under a key prefix.
type Typed[T any] struct {
	c      Cache
	prefix string
}

// NewTyped wraps c. Keys are stored as prefix + "." + key.
func NewTyped[T any](c Cache, prefix string) *Typed[T] {
	return &Typed[T]{c: c, prefix: prefix}
}

func (t *Typed[T]) key(k string) string { return t.prefix + "." + k }

// Get returns the decoded value for key.
func (t *Typed[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var v T
	data, ok, err := t.c.Get(ctx, t.key(key))
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return v, true, nil
}

// Put encodes v and stores it under key for ttl.
func (t *Typed[T]) Put(ctx context.Context, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return t.c.Set(ctx, t.key(key), data, ttl)
}

// Delete removes key.
func (t *Typed[T]) Delete(ctx context.Context, key string) error {
	return t.c.Delete(ctx, t.key(key))
}
