package util

import (
	"strconv"
	"testing"
)

func TestNextPow2(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestShardCount(t *testing.T) {
	if got := ShardCount(0); got < 1 || got > MaxShards || got&(got-1) != 0 {
		t.Fatalf("auto shard count %d is not a power of two in range", got)
	}
	if got := ShardCount(10_000); got != MaxShards {
		t.Fatalf("want clamp to %d, got %d", MaxShards, got)
	}
	if got := ShardCount(5); got != 8 {
		t.Fatalf("want 8, got %d", got)
	}
}

func TestShardIndex_InRangeAndStable(t *testing.T) {
	const n = 16
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		k := "k:" + strconv.Itoa(i)
		idx := ShardIndex(k, n)
		if idx < 0 || idx >= n {
			t.Fatalf("index %d out of range", idx)
		}
		if ShardIndex(k, n) != idx {
			t.Fatal("index must be deterministic")
		}
		seen[idx] = true
	}
	if len(seen) < n/2 {
		t.Fatalf("poor spread: only %d of %d shards used", len(seen), n)
	}
	if ShardIndex("anything", 1) != 0 {
		t.Fatal("single shard must map to 0")
	}
}
