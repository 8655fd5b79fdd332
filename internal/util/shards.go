// Package util contains internal sharding helpers.
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"runtime"

	"github.com/cespare/xxhash/v2"
)

// MaxShards caps the automatic and requested shard counts.
const MaxShards = 256

// NextPow2 returns the smallest power of two >= x (1 for x <= 1).
// Inputs above 1<<62 are clamped to 1<<62.
func NextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	if x > 1<<62 {
		return 1 << 62
	}
	n := 1
	for n < x {
		n <<= 1
	}
	return n
}

// ShardCount normalizes a requested shard count. A non-positive request
// picks 2×GOMAXPROCS. The result is a power of two in [1, MaxShards].
func ShardCount(requested int) int {
	if requested <= 0 {
		requested = 2 * runtime.GOMAXPROCS(0)
	}
	n := NextPow2(requested)
	if n > MaxShards {
		n = MaxShards
	}
	return n
}

// ShardIndex maps a string key onto one of n shards; n must be a power of two.
func ShardIndex(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) & uint64(n-1))
}
