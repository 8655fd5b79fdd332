package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/freshcache/internal/logger"
	"github.com/IvanBrykalov/freshcache/policy"
)

// benchmarkMix exercises a SmartGet/SmartSet mix against a warm cache with
// the default policy table. Refresh callbacks are not registered, so the
// numbers reflect the read path alone.
func benchmarkMix(b *testing.B, readsPct int) {
	reg := policy.Default()
	cats := reg.Categories()
	c := New[string](Options[string]{Policies: reg, Logger: logger.Discard()})
	b.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 50_000; i++ {
		c.SmartSet("k:"+strconv.Itoa(i), "v", cats[i%len(cats)])
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			cat := cats[i%len(cats)]
			if r.Intn(100) < readsPct {
				c.SmartGet(k, cat)
			} else {
				c.SmartSet(k, "v", cat)
			}
			i++
		}
	})
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

func BenchmarkCache_Stats(b *testing.B) {
	reg := policy.Default()
	cats := reg.Categories()
	c := New[string](Options[string]{Policies: reg, Logger: logger.Discard()})
	b.Cleanup(func() { _ = c.Close() })
	for i := 0; i < 10_000; i++ {
		c.SmartSet("k:"+strconv.Itoa(i), "v", cats[i%len(cats)])
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Stats()
	}
}
