package cache

import (
	"time"

	"github.com/IvanBrykalov/freshcache/policy"
)

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit(policy.Status)                             {}
func (NoopMetrics) Miss()                                         {}
func (NoopMetrics) Evict(EvictReason)                             {}
func (NoopMetrics) Size(int)                                      {}
func (NoopMetrics) Refresh(string, RefreshOutcome, time.Duration) {}
func (NoopMetrics) PolicyMiss(string)                             {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
