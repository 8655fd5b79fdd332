package cache

import (
	"context"
	"testing"
	"time"
)

func TestInvalidate_EmptyAndNonMatching(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, &fakeClock{}, nil)
	if n := c.InvalidateByPattern("fuel"); n != 0 {
		t.Fatalf("empty store: want 0, got %d", n)
	}
	if n := c.InvalidateByCategory(testCat); n != 0 {
		t.Fatalf("empty store: want 0, got %d", n)
	}

	c.Set("fuel:tx", "1", testCat)
	c.Set("fuel:ca", "2", testCat)
	if n := c.InvalidateByPattern("erg"); n != 0 {
		t.Fatalf("non-matching pattern: want 0, got %d", n)
	}
	if n := c.InvalidateByCategory("OTHER"); n != 0 {
		t.Fatalf("non-matching category: want 0, got %d", n)
	}
	if c.Len() != 2 {
		t.Fatalf("no-op invalidation mutated the store, len=%d", c.Len())
	}
}

func TestInvalidateByPattern(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, &fakeClock{}, nil)
	for _, k := range []string{"fuel:tx", "fuel:ca", "erg:1203", "rates:tx-ca"} {
		c.Set(k, "v", testCat)
	}

	// Plain substring, not a regex: "." matches nothing here.
	if n := c.InvalidateByPattern("."); n != 0 {
		t.Fatalf("'.' must be literal, removed %d", n)
	}
	if n := c.InvalidateByPattern("tx"); n != 2 {
		t.Fatalf("want 2 removed, got %d", n)
	}
	for _, k := range []string{"fuel:tx", "rates:tx-ca"} {
		if _, ok := c.Get(k); ok {
			t.Fatalf("%s must be gone", k)
		}
	}
	for _, k := range []string{"fuel:ca", "erg:1203"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s must survive", k)
		}
	}
	if n := c.InvalidateByPattern("tx"); n != 0 {
		t.Fatalf("second pass must be a no-op, got %d", n)
	}
}

func TestInvalidateByCategory(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, &fakeClock{}, nil)
	c.Set("a", "v", testCat)
	c.Set("b", "v", testCat)
	c.Set("c", "v", "OTHER")

	if n := c.InvalidateByCategory(testCat); n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("other category must survive")
	}
	if c.Len() != 1 {
		t.Fatalf("len: want 1, got %d", c.Len())
	}

	c.Set("d", "v", testCat)
	if n := c.Clear(); n != 2 {
		t.Fatalf("Clear: want 2, got %d", n)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := newTestCache(t, clk, nil)

	c.Set("old", "v", testCat) // t=0
	c.Set("gone", "v", "OTHER")
	clk.set(200 * time.Second)
	c.Set("new", "v", testCat) // t=200
	c.Set("nopolicy", "v", "MISC")
	clk.set(400 * time.Second)
	// old: 400s stale; new: 200s fresh; gone: past 120s horizon; nopolicy: 200s fresh

	release := make(chan struct{})
	c.RegisterCallback("OTHER", func(ctx context.Context) error { <-release; return nil })
	c.TriggerBackgroundRefresh("OTHER")
	defer close(release)

	st := c.Stats()
	if st.TotalKeys != 4 || st.FreshKeys != 2 || st.StaleKeys != 1 || st.ExpiredKeys != 1 {
		t.Fatalf("counters: %+v", st)
	}
	if len(st.PendingRefreshes) != 1 || st.PendingRefreshes[0] != "OTHER" {
		t.Fatalf("pending: %v", st.PendingRefreshes)
	}
	cat := st.ByCategory[testCat]
	if cat.Count != 2 || cat.AvgAge != 300*time.Second || cat.AvgAgeSeconds != 300 {
		t.Fatalf("by category %s: %+v", testCat, cat)
	}
	if misc := st.ByCategory["MISC"]; misc.Count != 1 || misc.Label != "unconfigured" {
		t.Fatalf("by category MISC: %+v", misc)
	}
	if c.Len() != 4 {
		t.Fatal("stats scan must not evict")
	}
}
