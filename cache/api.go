package cache

import (
	"context"
	"iter"
)

// Cache is a freshness-aware, sharded in-memory cache keyed by string.
// All methods are safe for concurrent use by multiple goroutines.
//
// Values are shared, not copied, unless Options.Clone is set: whatever is
// stored must be treated as immutable by writers and readers alike.
type Cache[V any] interface {
	// Get returns the entry for key. Entries past their category horizon
	// are evicted and reported as a miss.
	Get(key string) (Entry[V], bool)

	// Set stores value under key, stamped now, tagged with category.
	// It replaces any previous entry wholesale.
	Set(key string, value V, category string)

	// Delete removes key and reports whether it was present.
	Delete(key string) bool

	// Keys yields the live keys; the sequence is finite and restartable.
	Keys() iter.Seq[string]

	// Len returns the number of resident entries.
	Len() int

	// SmartGet classifies the entry against category's policy, evicts it
	// when expired, and fires a background refresh once the refresh-ahead
	// threshold is crossed. It never waits on a refresh.
	SmartGet(key, category string) (Result[V], bool)

	// SmartSet stores a freshly fetched value for category.
	SmartSet(key string, value V, category string)

	// RegisterCallback installs the repopulation function for category.
	RegisterCallback(category string, fn RefreshFunc)

	// TriggerBackgroundRefresh starts a deduplicated, detached refresh of
	// category and returns its handle, or nil if nothing was started.
	TriggerBackgroundRefresh(category string) *Flight

	// ForceRefresh runs (or joins) a refresh of category and waits for it.
	ForceRefresh(ctx context.Context, category string) bool

	// RefreshAll force-refreshes every registered category.
	RefreshAll(ctx context.Context) map[string]bool

	// Pending returns the categories with a refresh in flight.
	Pending() []string

	// InvalidateByPattern evicts keys containing substr.
	InvalidateByPattern(substr string) int

	// InvalidateByCategory evicts entries tagged with category.
	InvalidateByCategory(category string) int

	// Clear evicts every entry.
	Clear() int

	// Stats scans all entries and aggregates freshness counters.
	Stats() Stats

	// Enabled and SetEnabled read and flip the global pass-through switch.
	Enabled() bool
	SetEnabled(on bool)

	// Wait blocks until no refresh is in flight or ctx is done.
	Wait(ctx context.Context) error

	// Close stops background workers and marks the cache closed.
	Close() error
}
