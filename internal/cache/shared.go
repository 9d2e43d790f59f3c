package cache

import (
	"fmt"
	"sync"
)

// Shared is a reference-counted cache. Values are created on first Acquire
// and destroyed when the last holder releases them.
type Shared[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*sharedEntry[V]
	destroy func(V)
}

type sharedEntry[V any] struct {
	value V
	refs  int
}

// NewShared creates a Shared cache. destroy is called exactly once for each
// value, when its reference count drops to zero. It may be nil.
func NewShared[K comparable, V any](destroy func(V)) *Shared[K, V] {
	return &Shared[K, V]{
		entries: make(map[K]*sharedEntry[V]),
		destroy: destroy,
	}
}

// Acquire returns the value for key, creating it if no holder exists.
// The returned release function must be called once; extra calls are no-ops.
func (s *Shared[K, V]) Acquire(key K, create func() (V, error)) (V, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		v, err := create()
		if err != nil {
			var zero V
			return zero, func() {}, fmt.Errorf("cache: create shared value: %w", err)
		}
		e = &sharedEntry[V]{value: v}
		s.entries[key] = e
	}
	e.refs++

	var once sync.Once
	release := func() {
		once.Do(func() { s.release(key, e) })
	}
	return e.value, release, nil
}

// release drops one reference held on e.
func (s *Shared[K, V]) release(key K, e *sharedEntry[V]) {
	s.mu.Lock()
	e.refs--
	last := e.refs == 0
	if last && s.entries[key] == e {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if last && s.destroy != nil {
		s.destroy(e.value)
	}
}

// Refs returns the number of live holders of key.
func (s *Shared[K, V]) Refs(key K) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of live values.
func (s *Shared[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
