package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultMemoCapacity bounds a Memo created with a non-positive capacity.
const DefaultMemoCapacity = 256

// Memo is a bounded LRU cache for the results of pure functions.
type Memo[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	order    lruList[K, V]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemo creates a Memo holding at most capacity entries.
func NewMemo[K comparable, V any](capacity int) *Memo[K, V] {
	if capacity <= 0 {
		capacity = DefaultMemoCapacity
	}
	return &Memo[K, V]{
		entries:  make(map[K]*lruNode[K, V], capacity),
		capacity: capacity,
	}
}

// Get returns the cached value for key.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.entries[key]
	if !ok {
		m.misses.Add(1)
		var zero V
		return zero, false
	}
	m.hits.Add(1)
	m.order.MoveToFront(node)
	return node.value, true
}

// Set stores value for key, evicting the least recently used entry when full.
func (m *Memo[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if node, ok := m.entries[key]; ok {
		node.value = value
		m.order.MoveToFront(node)
		return
	}
	m.entries[key] = m.order.PushFront(key, value)
	for m.order.Len() > m.capacity {
		oldest, ok := m.order.RemoveOldest()
		if !ok {
			break
		}
		delete(m.entries, oldest)
		m.evictions.Add(1)
	}
}

// GetOrCompute returns the cached value or computes and stores it.
// compute runs without the lock held; two racing callers may both compute,
// which is harmless for pure functions.
func (m *Memo[K, V]) GetOrCompute(key K, compute func(K) V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	v := compute(key)
	m.Set(key, v)
	return v
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Clear drops every entry. Statistics are kept.
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[K]*lruNode[K, V], m.capacity)
	m.order.Clear()
}

// Stats returns a snapshot of the cache counters.
func (m *Memo[K, V]) Stats() Stats {
	hits, misses := m.hits.Load(), m.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:       m.Len(),
		Capacity:  m.capacity,
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		Evictions: m.evictions.Load(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}
