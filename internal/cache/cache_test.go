package cache

import (
	"testing"
	"time"
)

func put[T any](c *LRU[T], key string, v T) {
	c.SetIfCurrent(key, v, c.Generation())
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	put(c, "a", 1)
	put(c, "b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	put(c, "c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := NewLRU[string](10, time.Minute)
	c.now = func() time.Time { return now }

	put(c, "summary", "v1")
	put(c, "breakdown", "v2")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("summary"); ok {
		t.Error("expired entry returned")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUPurge(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	put(c, "a", 1)
	put(c, "b", 2)
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() after Purge = %d", c.Size())
	}
	put(c, "c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("cache unusable after Purge: %d, %v", v, ok)
	}
}

func TestJanitor(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := NewLRU[int](10, time.Second)
	c.now = func() time.Time { return now }
	put(c, "a", 1)
	now = now.Add(time.Hour)

	j := NewJanitor(nil, c)
	if removed := j.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}

	j.Start(time.Hour)
	j.Stop()
	j.Stop()
	select {
	case <-j.done:
	default:
		t.Error("Stop returned before the sweep loop exited")
	}

	NewJanitor(nil, c).Stop()
}

func TestLRUSetIfCurrent(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	gen := c.Generation()
	if !c.SetIfCurrent("summary", 1, gen) {
		t.Fatal("store with an unchanged generation should succeed")
	}

	stale := c.Generation()
	c.Purge()
	if c.SetIfCurrent("summary", 2, stale) {
		t.Error("value computed before a purge must not be stored")
	}
	if _, ok := c.Get("summary"); ok {
		t.Error("stale value served after purge")
	}
	if !c.SetIfCurrent("summary", 3, c.Generation()) {
		t.Error("fresh generation should store")
	}
}
