// Package policy holds per-category freshness policies and the pure
// functions that classify an entry's age against them.
package policy

import (
	"errors"
	"fmt"
	"time"
)

// Policy is the freshness configuration of one data category.
//
// An entry is Fresh for TTL after it was stored, Stale (still served) for a
// further StaleTTL, and Expired afterwards. TTL+StaleTTL is the absolute
// eviction horizon for entries of the category.
type Policy struct {
	// TTL is the fully-fresh window. Must be > 0.
	TTL time.Duration
	// StaleTTL is the grace window after TTL during which the value is
	// still usable. Must be >= 0.
	StaleTTL time.Duration
	// RefreshAhead is the fraction of TTL after which a background refresh
	// should begin, in [0, 1].
	RefreshAhead float64
	// EventDriven marks categories that external events may also
	// invalidate. Informational only.
	EventDriven bool
	// Label is a display name.
	Label string
}

// Horizon returns TTL+StaleTTL.
func (p Policy) Horizon() time.Duration { return p.TTL + p.StaleTTL }

// RefreshAt returns the age at which refresh-ahead kicks in.
func (p Policy) RefreshAt() time.Duration {
	return time.Duration(float64(p.TTL) * p.RefreshAhead)
}

// Validate reports the first constraint the policy violates, if any.
func (p Policy) Validate() error {
	switch {
	case p.TTL <= 0:
		return errors.New("ttl must be > 0")
	case p.StaleTTL < 0:
		return errors.New("stale ttl must be >= 0")
	case p.RefreshAhead < 0 || p.RefreshAhead > 1:
		return fmt.Errorf("refresh-ahead fraction %v outside [0,1]", p.RefreshAhead)
	}
	return nil
}

// Fallback is applied to categories that have no registered policy.
//
// Such entries are Fresh for 5 minutes, Stale for 5 more, then Expired, so
// their status horizon matches the store's default 600s bound. Refresh-ahead
// is never triggered for them (see Registry.ShouldRefreshAhead).
var Fallback = Policy{
	TTL:      300 * time.Second,
	StaleTTL: 300 * time.Second,
	Label:    "unconfigured",
}
