package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/IvanBrykalov/freshcache/cache"
)

var errUpstream = errors.New("upstream unavailable")

// upstream simulates the source of truth behind every category: a shared
// rate limit, fixed latency and a failure probability.
type upstream struct {
	limiter  *rate.Limiter
	latency  time.Duration
	failRate float64
	keys     int

	fetches  atomic.Uint64
	failures atomic.Uint64
}

func newUpstream(rps float64, burst int, latency time.Duration, failRate float64, keys int) *upstream {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &upstream{
		limiter:  rate.NewLimiter(limit, burst),
		latency:  latency,
		failRate: failRate,
		keys:     keys,
	}
}

// callback returns the refresh function that repopulates every key of
// category in c.
func (u *upstream) callback(c cache.Cache[string], category string) cache.RefreshFunc {
	return func(ctx context.Context) error {
		if err := u.limiter.Wait(ctx); err != nil {
			return err
		}
		u.fetches.Add(1)
		if u.latency > 0 {
			t := time.NewTimer(u.latency)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if rand.Float64() < u.failRate {
			u.failures.Add(1)
			return fmt.Errorf("fetch %s: %w", category, errUpstream)
		}
		stamp := strconv.FormatInt(time.Now().UnixNano(), 10)
		for i := 0; i < u.keys; i++ {
			c.SmartSet(key(category, i), stamp, category)
		}
		return nil
	}
}

func key(category string, i int) string {
	return category + ":" + strconv.Itoa(i)
}
