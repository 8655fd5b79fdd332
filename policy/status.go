package policy

import "time"

// Status is the derived freshness of an entry. It is never stored.
type Status uint8

const (
	// Fresh - age is within TTL.
	Fresh Status = iota
	// Stale - past TTL but within the stale grace window; still served.
	Stale
	// Expired - past TTL+StaleTTL; evicted on next touch.
	Expired
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Classify returns the status of an entry of the given age under p.
func (p Policy) Classify(age time.Duration) Status {
	switch {
	case age <= p.TTL:
		return Fresh
	case age <= p.TTL+p.StaleTTL:
		return Stale
	default:
		return Expired
	}
}
