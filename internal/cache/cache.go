// Package cache provides the bounded LRU used to keep decompressed
// hash-bucket blobs resident between store reads.
package cache

import (
	"container/list"
	"sync"
)

// Config bounds an LRU. A zero value means unbounded on that axis.
type Config struct {
	// MaxEntries caps the number of cached values.
	MaxEntries int

	// MaxBytes caps the summed size of cached values, as reported by
	// the cache's size function.
	MaxBytes int64
}

// DefaultConfig returns the bounds used by the hashfile store's bucket
// cache: plenty of buckets, capped well below a large index's total
// decompressed size.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 256,
		MaxBytes:   64 << 20,
	}
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int64
}

// lruEntry is one cached value and its recorded size. The size is
// captured at insert time so accounting stays consistent even if the
// size function would report differently later.
type lruEntry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// LRU is a thread-safe least-recently-used cache bounded both by entry
// count and by the summed size of its values. Both bounds are enforced
// by the same eviction loop in Put, so the byte accounting can never
// drift from what the cache actually holds.
type LRU[K comparable, V any] struct {
	mu     sync.Mutex
	config Config
	size   func(V) int64
	items  map[K]*list.Element
	order  *list.List // front is most recently used

	bytes     int64
	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates a cache bounded by config. size reports a value's byte
// cost; nil means values cost nothing and only MaxEntries bounds the
// cache.
func NewLRU[K comparable, V any](config Config, size func(V) int64) *LRU[K, V] {
	if size == nil {
		size = func(V) int64 { return 0 }
	}
	return &LRU[K, V]{
		config: config,
		size:   size,
		items:  make(map[K]*list.Element),
		order:  list.New(),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.order.MoveToFront(ent)
	c.hits++
	return ent.Value.(*lruEntry[K, V]).value, true
}

// Put stores a value, evicting least-recently-used entries until both
// bounds hold. A value larger than MaxBytes on its own is not cached.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.size(value)
	if c.config.MaxBytes > 0 && size > c.config.MaxBytes {
		return
	}

	if ent, ok := c.items[key]; ok {
		e := ent.Value.(*lruEntry[K, V])
		c.bytes += size - e.size
		e.value = value
		e.size = size
		c.order.MoveToFront(ent)
	} else {
		c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value, size: size})
		c.bytes += size
	}

	for c.overBudget() {
		c.evictOldest()
	}
}

// overBudget reports whether either bound is currently exceeded.
func (c *LRU[K, V]) overBudget() bool {
	if c.config.MaxEntries > 0 && c.order.Len() > c.config.MaxEntries {
		return true
	}
	return c.config.MaxBytes > 0 && c.bytes > c.config.MaxBytes
}

// evictOldest drops the least-recently-used entry. Caller holds the
// lock; the eviction loop in Put cannot spin forever because every call
// shrinks the list.
func (c *LRU[K, V]) evictOldest() {
	ent := c.order.Back()
	if ent == nil {
		return
	}
	c.deleteElement(ent)
	c.evictions++
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.deleteElement(ent)
	}
}

func (c *LRU[K, V]) deleteElement(ent *list.Element) {
	e := ent.Value.(*lruEntry[K, V])
	c.order.Remove(ent)
	delete(c.items, e.key)
	c.bytes -= e.size
}

// Clear drops every entry. Counters survive; bounds apply to the next
// fills as usual.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.order.Init()
	c.bytes = 0
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.order.Len(),
		Bytes:     c.bytes,
	}
}

// BucketCache maps a hash-bucket file path to its decompressed
// posting-log bytes, so repeated reads of a hot term don't re-run xz
// decompression every call. Bucket blobs vary from a few bytes to
// megabytes, which is why the underlying LRU is byte-bounded rather
// than count-bounded alone.
type BucketCache struct {
	lru *LRU[string, []byte]
}

// NewBucketCache creates a bucket-blob cache bounded by config.
func NewBucketCache(config Config) *BucketCache {
	return &BucketCache{
		lru: NewLRU[string, []byte](config, func(b []byte) int64 {
			return int64(len(b))
		}),
	}
}

// NewDefaultBucketCache creates a bucket cache with the default bounds.
func NewDefaultBucketCache() *BucketCache {
	return NewBucketCache(DefaultConfig())
}

// Get retrieves a decompressed bucket blob by its file path.
func (c *BucketCache) Get(path string) ([]byte, bool) {
	return c.lru.Get(path)
}

// Put stores a decompressed bucket blob.
func (c *BucketCache) Put(path string, data []byte) {
	c.lru.Put(path, data)
}

// Remove evicts a bucket blob, used after a bucket is rewritten.
func (c *BucketCache) Remove(path string) {
	c.lru.Remove(path)
}

// Len returns the number of cached bucket blobs.
func (c *BucketCache) Len() int {
	return c.lru.Len()
}

// Stats returns the underlying cache counters.
func (c *BucketCache) Stats() Stats {
	return c.lru.Stats()
}
