package ai

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(ttl time.Duration, max int) (*Cache, *time.Time) {
	c := NewCache(ttl, max)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	return c, &current
}

func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, now := newTestCache(time.Minute, 10)

	c.Set("k", "v")
	*now = now.Add(61 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped on read, len=%d", c.Len())
	}
}

func TestCache_Sweep(t *testing.T) {
	c, now := newTestCache(time.Minute, 10)

	c.Set("a", "1")
	c.Set("b", "2")
	*now = now.Add(30 * time.Second)
	c.Set("c", "3")
	*now = now.Add(45 * time.Second) // a and b expired, c still live

	if removed := c.Sweep(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected c to survive sweep")
	}
}

func TestCache_EvictsWhenFull(t *testing.T) {
	c, now := newTestCache(time.Minute, 3)

	c.Set("a", "1")
	*now = now.Add(time.Second)
	c.Set("b", "2")
	*now = now.Add(time.Second)
	c.Set("c", "3")
	*now = now.Add(time.Second)
	c.Set("d", "4") // evicts a, the entry closest to expiry

	if c.Len() != 3 {
		t.Fatalf("expected len 3, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to remain", k)
		}
	}
}

func TestCache_UpdateDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(time.Minute, 2)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "updated")

	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
	got, ok := c.Get("a")
	if !ok || got != "updated" {
		t.Fatalf("expected updated value, got %q ok=%v", got, ok)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b to remain")
	}
}

func TestCache_ManyKeys(t *testing.T) {
	c, _ := newTestCache(time.Minute, 100)
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	if c.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", c.Len())
	}
}
