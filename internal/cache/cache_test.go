package cache

import (
	"sync"
	"testing"
)

func byteLen(s string) int64 { return int64(len(s)) }

func TestGetReturnsWhatPutStored(t *testing.T) {
	c := NewLRU[string, int](Config{MaxEntries: 4}, nil)

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestEntryBoundEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](Config{MaxEntries: 2}, nil)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // "b" is now the oldest
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should have survived eviction", key)
		}
	}
}

func TestByteBoundEvictsUntilNewValueFits(t *testing.T) {
	c := NewLRU[string, string](Config{MaxBytes: 10}, byteLen)

	c.Put("a", "aaaa") // 4 bytes
	c.Put("b", "bbbb") // 8 total
	c.Put("c", "cccc") // would be 12: "a" must go

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted to fit c")
	}
	if got := c.Stats().Bytes; got != 8 {
		t.Errorf("Bytes = %d, want 8", got)
	}
}

func TestOversizedValueIsNotCached(t *testing.T) {
	c := NewLRU[string, string](Config{MaxBytes: 4}, byteLen)

	c.Put("small", "ok")
	c.Put("huge", "never fits")

	if _, ok := c.Get("huge"); ok {
		t.Error("value larger than MaxBytes should not be cached")
	}
	if _, ok := c.Get("small"); !ok {
		t.Error("oversized Put must not disturb existing entries")
	}
}

func TestUpdateAdjustsByteAccounting(t *testing.T) {
	c := NewLRU[string, string](Config{MaxBytes: 100}, byteLen)

	c.Put("k", "four")
	if got := c.Stats().Bytes; got != 4 {
		t.Fatalf("Bytes after first Put = %d, want 4", got)
	}

	c.Put("k", "eightchr")
	if got := c.Stats().Bytes; got != 8 {
		t.Errorf("Bytes after update = %d, want 8", got)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Len() after update = %d, want 1", got)
	}

	c.Put("k", "xy")
	if got := c.Stats().Bytes; got != 2 {
		t.Errorf("Bytes after shrinking update = %d, want 2", got)
	}
}

func TestRemoveReleasesBytes(t *testing.T) {
	c := NewLRU[string, string](Config{MaxBytes: 100}, byteLen)

	c.Put("a", "aaaa")
	c.Put("b", "bb")
	c.Remove("a")

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Remove = true, want false")
	}
	if got := c.Stats().Bytes; got != 2 {
		t.Errorf("Bytes after Remove = %d, want 2", got)
	}
	// Removing an absent key is a no-op.
	c.Remove("never-there")
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestClearEmptiesEverything(t *testing.T) {
	c := NewLRU[string, string](Config{MaxEntries: 8, MaxBytes: 100}, byteLen)

	c.Put("a", "aaaa")
	c.Put("b", "bbbb")
	c.Clear()

	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
	if got := c.Stats().Bytes; got != 0 {
		t.Errorf("Bytes after Clear = %d, want 0", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Clear = true, want false")
	}

	// The cache stays usable after Clear.
	c.Put("c", "cc")
	if v, ok := c.Get("c"); !ok || v != "cc" {
		t.Errorf("Get(c) after refill = %q, %v; want cc, true", v, ok)
	}
}

func TestStatsCountersTrackActivity(t *testing.T) {
	c := NewLRU[string, string](Config{MaxEntries: 2}, byteLen)

	c.Put("a", "x")
	c.Put("b", "y")
	c.Get("a")
	c.Get("a")
	c.Get("nope")
	c.Put("c", "z") // evicts "b"

	s := c.Stats()
	if s.Hits != 2 {
		t.Errorf("Hits = %d, want 2", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("Misses = %d, want 1", s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
	if s.Entries != 2 {
		t.Errorf("Entries = %d, want 2", s.Entries)
	}
}

func TestUnboundedAxes(t *testing.T) {
	t.Run("no entry bound", func(t *testing.T) {
		c := NewLRU[int, int](Config{}, nil)
		for i := 0; i < 500; i++ {
			c.Put(i, i)
		}
		if got := c.Len(); got != 500 {
			t.Errorf("Len() = %d, want 500", got)
		}
	})
	t.Run("nil size func means bytes never bound", func(t *testing.T) {
		c := NewLRU[int, string](Config{MaxBytes: 1}, nil)
		c.Put(1, "much longer than one byte")
		if _, ok := c.Get(1); !ok {
			t.Error("with a nil size func, MaxBytes must not reject values")
		}
	})
}

func TestConcurrentAccessIsSafe(t *testing.T) {
	c := NewLRU[int, int](Config{MaxEntries: 64}, nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := g*200 + i
				c.Put(key, key)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if got := c.Len(); got > 64 {
		t.Errorf("Len() = %d, want <= 64", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.MaxEntries <= 0 {
		t.Errorf("DefaultConfig().MaxEntries = %d, want > 0", config.MaxEntries)
	}
	if config.MaxBytes <= 0 {
		t.Errorf("DefaultConfig().MaxBytes = %d, want > 0", config.MaxBytes)
	}
}

func TestBucketCacheRoundTrip(t *testing.T) {
	c := NewDefaultBucketCache()

	blob := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}
	c.Put("buckets/0a.log.xz", blob)

	got, ok := c.Get("buckets/0a.log.xz")
	if !ok {
		t.Fatal("Get() = false after Put")
	}
	if string(got) != string(blob) {
		t.Errorf("Get() = %v, want %v", got, blob)
	}

	c.Remove("buckets/0a.log.xz")
	if _, ok := c.Get("buckets/0a.log.xz"); ok {
		t.Error("Get() = true after Remove")
	}
}

func TestBucketCacheBoundsByBlobBytes(t *testing.T) {
	c := NewBucketCache(Config{MaxBytes: 32})

	c.Put("a", make([]byte, 16))
	c.Put("b", make([]byte, 16))
	c.Put("c", make([]byte, 16)) // 48 would exceed 32: "a" goes

	if _, ok := c.Get("a"); ok {
		t.Error("oldest blob should have been evicted by the byte bound")
	}
	if got := c.Stats().Bytes; got != 32 {
		t.Errorf("Bytes = %d, want 32", got)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func BenchmarkLRUPut(b *testing.B) {
	c := NewLRU[int, int](Config{MaxEntries: 128}, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(i, i)
	}
}

func BenchmarkLRUGetHot(b *testing.B) {
	c := NewLRU[int, []byte](Config{MaxEntries: 128, MaxBytes: 1 << 20}, func(v []byte) int64 {
		return int64(len(v))
	})
	for i := 0; i < 128; i++ {
		c.Put(i, make([]byte, 64))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(i % 128)
	}
}
