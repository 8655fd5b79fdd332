// Package inflight tracks units of work that are currently running, at most
// one per key, and hands out handles that let other goroutines observe or
// join them.
package inflight

import (
	"context"
	"sync"
)

// Call is a handle to one in-flight unit of work.
// Err is valid only after Done is closed.
type Call struct {
	done chan struct{} // closed when err is published
	err  error
}

// Done returns a channel closed when the work completes.
func (c *Call) Done() <-chan struct{} { return c.done }

// Err returns the outcome of the work. It blocks until Done is closed.
func (c *Call) Err() error {
	<-c.done
	return c.err
}

// Wait blocks until the work completes or ctx is done. Cancelling ctx
// unblocks only this waiter; the work itself keeps running.
func (c *Call) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Group is a set of keys with in-flight work. The zero value is ready to use.
//
// Concurrency notes:
//   - Acquire is the single check-and-set point: exactly one caller per key
//     becomes the leader until that leader calls Release.
//   - Release removes the key before closing Done, so any goroutine that
//     observed Done also observes the key as absent.
type Group[K comparable] struct {
	mu sync.Mutex
	m  map[K]*Call
}

// Acquire marks key as in flight. It returns a fresh Call and true if the
// caller became the leader, or the existing Call and false otherwise.
func (g *Group[K]) Acquire(key K) (*Call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.m == nil {
		g.m = make(map[K]*Call)
	}
	if c, ok := g.m[key]; ok {
		return c, false
	}
	c := &Call{done: make(chan struct{})}
	g.m[key] = c
	return c, true
}

// Release publishes err for c, removes key from the set and wakes waiters.
// Only the leader that acquired c may release it.
func (g *Group[K]) Release(key K, c *Call, err error) {
	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	g.mu.Unlock()

	c.err = err
	close(c.done)
}

// Do runs fn once for key and reports whether the caller was the leader.
// If work for key is already in flight the caller joins it and receives its
// error instead (respecting ctx); fn is not run.
func (g *Group[K]) Do(ctx context.Context, key K, fn func() error) (leader bool, err error) {
	c, leader := g.Acquire(key)
	if !leader {
		return false, c.Wait(ctx)
	}
	defer func() { g.Release(key, c, err) }()
	return true, fn()
}

// Has reports whether key is in flight.
func (g *Group[K]) Has(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.m[key]
	return ok
}

// Keys returns a snapshot of the in-flight keys in unspecified order.
func (g *Group[K]) Keys() []K {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]K, 0, len(g.m))
	for k := range g.m {
		out = append(out, k)
	}
	return out
}

// Len returns the number of in-flight keys.
func (g *Group[K]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

// Wait blocks until the set is empty, including work acquired while
// waiting, or until ctx is done.
func (g *Group[K]) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		calls := make([]*Call, 0, len(g.m))
		for _, c := range g.m {
			calls = append(calls, c)
		}
		g.mu.Unlock()

		if len(calls) == 0 {
			return nil
		}
		for _, c := range calls {
			select {
			case <-c.done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
