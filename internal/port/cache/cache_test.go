package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/Principal/internal/port/cache"
)

// RunComplianceTests runs the standard compliance test suite against any Cache implementation.
func RunComplianceTests(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "compliance-key", []byte("compliance-val"), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "compliance-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found || string(val) != "compliance-val" {
			t.Fatalf("expected compliance-val, got %q (found=%v)", val, found)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "nonexistent-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "del-key", []byte("del-val"), time.Minute)
		if err := c.Delete(ctx, "del-key"); err != nil {
			t.Fatal(err)
		}
		if _, found, _ := c.Get(ctx, "del-key"); found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "ow-key", []byte("v1"), time.Minute)
		_ = c.Set(ctx, "ow-key", []byte("v2"), time.Minute)
		val, found, err := c.Get(ctx, "ow-key")
		if err != nil || !found || string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %q found=%v err=%v", val, found, err)
		}
	})
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestMapCacheCompliance(t *testing.T) {
	RunComplianceTests(t, &mapCache{data: map[string][]byte{}})
}

func TestTypedRoundTripAndPrefix(t *testing.T) {
	type status struct {
		State string `json:"state"`
	}
	m := &mapCache{data: map[string][]byte{}}
	tc := cache.NewTyped[status](m, "results")
	ctx := context.Background()

	if err := tc.Put(ctx, "p1", status{State: "completed"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.data["results.p1"]; !ok {
		t.Fatalf("expected prefixed key, have %v", m.data)
	}
	got, ok, err := tc.Get(ctx, "p1")
	if err != nil || !ok || got.State != "completed" {
		t.Fatalf("unexpected get: %+v %v %v", got, ok, err)
	}

	m.data["results.bad"] = []byte("{")
	if _, _, err := tc.Get(ctx, "bad"); err == nil {
		t.Error("expected decode error")
	}
	_ = tc.Delete(ctx, "p1")
	if _, ok, _ := tc.Get(ctx, "p1"); ok {
		t.Error("expected miss after delete")
	}
}
