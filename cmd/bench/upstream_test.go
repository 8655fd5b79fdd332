package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IvanBrykalov/freshcache/cache"
	"github.com/IvanBrykalov/freshcache/internal/config"
	"github.com/IvanBrykalov/freshcache/internal/logger"
	"github.com/IvanBrykalov/freshcache/policy"
)

func TestUpstream_Populates(t *testing.T) {
	c := cache.New[string](cache.Options[string]{Policies: policy.Default(), Logger: logger.Discard()})
	defer func() { _ = c.Close() }()

	u := newUpstream(0, 1, 0, 0, 5)
	c.RegisterCallback(policy.FuelPrices, u.callback(c, policy.FuelPrices))

	if !c.ForceRefresh(context.Background(), policy.FuelPrices) {
		t.Fatal("refresh failed")
	}
	if c.Len() != 5 {
		t.Fatalf("want 5 entries, got %d", c.Len())
	}
	if r, ok := c.SmartGet(key(policy.FuelPrices, 3), policy.FuelPrices); !ok || !r.Fresh {
		t.Fatalf("want fresh hit, got %+v ok=%v", r, ok)
	}
	if u.fetches.Load() != 1 {
		t.Fatalf("want 1 fetch, got %d", u.fetches.Load())
	}
}

func TestUpstream_Fails(t *testing.T) {
	c := cache.New[string](cache.Options[string]{Policies: policy.Default(), Logger: logger.Discard()})
	defer func() { _ = c.Close() }()

	u := newUpstream(0, 1, 0, 1, 5)
	fn := u.callback(c, policy.MarketRates)
	if err := fn(context.Background()); !errors.Is(err, errUpstream) {
		t.Fatalf("want errUpstream, got %v", err)
	}
	if c.Len() != 0 || u.failures.Load() != 1 {
		t.Fatalf("len=%d failures=%d", c.Len(), u.failures.Load())
	}
}

func TestUpstream_HonoursContext(t *testing.T) {
	c := cache.New[string](cache.Options[string]{Policies: policy.Default(), Logger: logger.Discard()})
	defer func() { _ = c.Close() }()

	u := newUpstream(0, 1, time.Hour, 0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := u.callback(c, policy.FuelPrices)(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestScaleTable(t *testing.T) {
	tbl := scaleTable(policy.DefaultTable(), 60)
	p := tbl[policy.FuelPrices]
	if p.TTL != 5*time.Second || p.StaleTTL != 10*time.Second || p.RefreshAhead != 0.8 {
		t.Fatalf("unexpected scaled policy: %+v", p)
	}
	if _, err := policy.NewRegistry(tbl); err != nil {
		t.Fatalf("scaled table invalid: %v", err)
	}
}

func validWorkload() workload {
	return workload{
		timescale: 60,
		workers:   1,
		duration:  time.Second,
		keys:      10,
		zipfS:     1.1,
		zipfV:     1,
		rps:       20,
		burst:     4,
		failRate:  0.05,
	}
}

func TestWorkloadValidate(t *testing.T) {
	if err := validWorkload().validate(); err != nil {
		t.Fatalf("valid workload rejected: %v", err)
	}
	tests := []struct {
		name string
		mod  func(*workload)
	}{
		{"zero keys", func(w *workload) { w.keys = 0 }},
		{"negative keys", func(w *workload) { w.keys = -5 }},
		{"flat zipf", func(w *workload) { w.zipfS = 1 }},
		{"zipf v below one", func(w *workload) { w.zipfV = 0.5 }},
		{"zero duration", func(w *workload) { w.duration = 0 }},
		{"negative timescale", func(w *workload) { w.timescale = -1 }},
		{"negative rps", func(w *workload) { w.rps = -1 }},
		{"fail rate above one", func(w *workload) { w.failRate = 1.5 }},
		{"negative latency", func(w *workload) { w.latency = -time.Millisecond }},
	}
	for _, tt := range tests {
		w := validWorkload()
		tt.mod(&w)
		if err := w.validate(); err == nil {
			t.Errorf("%s: want error, got nil", tt.name)
		}
	}
}

func TestRunRejectsBadWorkload(t *testing.T) {
	w := validWorkload()
	w.keys = 0
	if err := run(&config.Config{}, w); err == nil {
		t.Fatal("run must reject keys=0 before starting anything")
	}
}
