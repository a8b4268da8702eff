package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("Set should overwrite, got %v", v)
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.Hits != 2 || stats.Misses != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should still be cached")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("c", 3)
	clock.t = clock.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("c should still be valid")
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("dashboard:u1:2024-05", 1)
	c.Set("dashboard:u1:2024-06", 2)
	c.Set("dashboard:u2:2024-05", 3)

	if n := c.DeletePrefix("dashboard:u1:"); n != 2 {
		t.Fatalf("DeletePrefix() = %d, want 2", n)
	}
	if _, ok := c.Get("dashboard:u2:2024-05"); !ok {
		t.Fatal("other user's entry was removed")
	}

	c.Delete("dashboard:u2:2024-05")
	if c.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", c.Size())
	}
}

func TestManager(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", 1)
	clock.t = clock.t.Add(time.Hour)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
