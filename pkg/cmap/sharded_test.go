package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[string, int]()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if len(m.shards) != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", len(m.shards), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[string, int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestSetAndGet(t *testing.T) {
	m := New[string, int]()

	m.Set("key1", 100)
	m.Set("key2", 200)

	val, ok := m.Get("key1")
	if !ok || val != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", val, ok)
	}
	val, ok = m.Get("key2")
	if !ok || val != 200 {
		t.Errorf("Get(key2) = (%d, %v), want (200, true)", val, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
}

func TestDeleteAndHas(t *testing.T) {
	m := New[string, int]()
	m.Set("key", 1)

	if !m.Has("key") {
		t.Error("Has(key) = false after Set")
	}
	m.Delete("key")
	if m.Has("key") {
		t.Error("Has(key) = true after Delete")
	}
}

func TestCountAndClear(t *testing.T) {
	m := New[string, int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}
	if m.Count() != 50 {
		t.Errorf("Count() = %d, want 50", m.Count())
	}
	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", m.Count())
	}
}

type clientID string

func TestNamedStringKey(t *testing.T) {
	m := New[clientID, string]()
	m.Set(clientID("01HZY"), "alice")

	val, ok := m.Get("01HZY")
	if !ok || val != "alice" {
		t.Errorf("Get(01HZY) = (%q, %v), want (alice, true)", val, ok)
	}
}

func TestShardIndexStable(t *testing.T) {
	m := NewWithShards[string, int](8)
	for _, key := range []string{"", "a", "client-1", "01HZY8K3"} {
		idx := m.ShardIndex(key)
		if idx < 0 || idx >= 8 {
			t.Errorf("ShardIndex(%q) = %d, out of range", key, idx)
		}
		if again := m.ShardIndex(key); again != idx {
			t.Errorf("ShardIndex(%q) not stable: %d then %d", key, idx, again)
		}
	}
}

func TestStats(t *testing.T) {
	m := NewWithShards[string, int](4)
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	stats := m.Stats()
	if len(stats) != 4 {
		t.Errorf("Stats() length = %d, want 4", len(stats))
	}

	total, used := 0, 0
	for _, s := range stats {
		total += s.Count
		if s.Count > 0 {
			used++
		}
	}
	if total != 100 {
		t.Errorf("total count from stats = %d, want 100", total)
	}
	if used < 2 {
		t.Errorf("keys landed in %d shard(s), want a spread", used)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[string, int]()
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 200

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("%d-%d", base, j)
				m.Set(key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}
}
