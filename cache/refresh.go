package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/IvanBrykalov/freshcache/internal/inflight"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Flight is a handle to one in-flight refresh. Done is closed when the
// callback returns; Err then holds its outcome.
type Flight = inflight.Call

// refreshAllLimit bounds concurrent callbacks in RefreshAll.
const refreshAllLimit = 8

// RegisterCallback installs the repopulation function for category.
// The last registration wins; a nil fn removes the callback.
func (c *cache[V]) RegisterCallback(category string, fn RefreshFunc) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	if fn == nil {
		delete(c.callbacks, category)
		return
	}
	c.callbacks[category] = fn
}

func (c *cache[V]) callback(category string) RefreshFunc {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()
	return c.callbacks[category]
}

// TriggerBackgroundRefresh starts the category's callback in a detached
// goroutine and returns its handle. It returns nil, doing nothing, when no
// callback is registered, a refresh for the category is already in flight,
// or the cache is closed. Failures are logged and never reach the caller.
func (c *cache[V]) TriggerBackgroundRefresh(category string) *Flight {
	if c.closed.Load() {
		return nil
	}
	fn := c.callback(category)
	if fn == nil {
		return nil
	}
	f, leader := c.flights.Acquire(category)
	if !leader {
		return nil
	}
	go func() {
		err := c.run(c.base, category, fn, "background")
		c.flights.Release(category, f, err)
	}()
	return f
}

// ForceRefresh runs the category's callback and waits for it. If a refresh
// for the category is already in flight it waits for that one instead.
// It returns false when no callback is registered, the callback fails, or
// ctx is done first.
func (c *cache[V]) ForceRefresh(ctx context.Context, category string) bool {
	fn := c.callback(category)
	if fn == nil {
		c.opt.Logger.Debug("force refresh without callback", "category", category)
		return false
	}
	_, err := c.flights.Do(ctx, category, func() error {
		return c.run(ctx, category, fn, "forced")
	})
	return err == nil
}

// RefreshAll force-refreshes every category with a registered callback
// concurrently and reports per-category success.
func (c *cache[V]) RefreshAll(ctx context.Context) map[string]bool {
	c.cbMu.RLock()
	cats := make([]string, 0, len(c.callbacks))
	for cat := range c.callbacks {
		cats = append(cats, cat)
	}
	c.cbMu.RUnlock()

	var (
		mu  sync.Mutex
		out = make(map[string]bool, len(cats))
		g   errgroup.Group
	)
	g.SetLimit(refreshAllLimit)
	for _, cat := range cats {
		g.Go(func() error {
			ok := c.ForceRefresh(ctx, cat)
			mu.Lock()
			out[cat] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Pending returns the categories with a refresh in flight, sorted.
func (c *cache[V]) Pending() []string {
	cats := c.flights.Keys()
	slices.Sort(cats)
	return cats
}

// run invokes fn, converting panics into errors, and records the outcome in
// logs, metrics, the trace and OnRefreshError.
func (c *cache[V]) run(ctx context.Context, category string, fn RefreshFunc, mode string) (err error) {
	ctx, span := c.opt.Tracer.Start(ctx, "cache.refresh",
		trace.WithAttributes(
			attribute.String("cache.category", category),
			attribute.String("cache.refresh.mode", mode),
		))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		took := time.Since(start)
		if err != nil {
			err = &RefreshError{Category: category, Err: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, "refresh failed")
			c.opt.Metrics.Refresh(category, RefreshFailed, took)
			c.opt.Logger.Error("cache refresh failed",
				"category", category,
				"mode", mode,
				"duration", took,
				"err", err,
			)
			if cb := c.opt.OnRefreshError; cb != nil {
				cb(category, err)
			}
		} else {
			c.opt.Metrics.Refresh(category, RefreshOK, took)
			c.opt.Logger.Debug("cache refresh done", "category", category, "mode", mode, "duration", took)
		}
		span.End()
	}()

	return fn(ctx)
}
