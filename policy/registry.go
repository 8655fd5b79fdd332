package policy

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Registry is an immutable category→Policy table, built once at startup.
// It doubles as the freshness evaluator. Safe for concurrent use.
type Registry struct {
	m map[string]Policy
}

// NewRegistry validates and copies table into a Registry.
func NewRegistry(table map[string]Policy) (*Registry, error) {
	m := make(map[string]Policy, len(table))
	for name, p := range table {
		if name == "" {
			return nil, fmt.Errorf("policy: empty category name")
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("policy %q: %w", name, err)
		}
		m[name] = p
	}
	return &Registry{m: m}, nil
}

// MustRegistry is like NewRegistry but panics on an invalid table.
func MustRegistry(table map[string]Policy) *Registry {
	r, err := NewRegistry(table)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the policy registered for category.
// A nil Registry has no policies.
func (r *Registry) Lookup(category string) (Policy, bool) {
	if r == nil {
		return Policy{}, false
	}
	p, ok := r.m[category]
	return p, ok
}

// Effective returns the registered policy, or Fallback when none exists.
func (r *Registry) Effective(category string) Policy {
	if p, ok := r.Lookup(category); ok {
		return p
	}
	return Fallback
}

// Categories returns the registered category names in sorted order.
func (r *Registry) Categories() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.m))
}

// Status classifies an entry of the given age. Unregistered categories are
// classified against Fallback.
func (r *Registry) Status(category string, age time.Duration) Status {
	return r.Effective(category).Classify(age)
}

// ShouldRefreshAhead reports whether an entry of the given age has crossed
// its category's refresh-ahead threshold. Always false for unregistered
// categories.
func (r *Registry) ShouldRefreshAhead(category string, age time.Duration) bool {
	p, ok := r.Lookup(category)
	if !ok {
		return false
	}
	return age >= p.RefreshAt()
}

// Horizon returns the eviction horizon (TTL+StaleTTL) for category,
// using Fallback when the category is not registered.
func (r *Registry) Horizon(category string) time.Duration {
	return r.Effective(category).Horizon()
}
