// Package cache provides the two caches used by the mount runtime.
//
// # Memo[K, V]
//
// A bounded LRU for pure computations that are looked up far more often than
// they change, such as parsed color strings:
//
//	m := cache.NewMemo[string, Color](512)
//	c := m.GetOrCompute("#ff0000", parse)
//
// # Shared[K, V]
//
// A reference-counted cache for resources that several mounted instances
// share on one device. The first Acquire creates the value, the last
// Release destroys it.
//
//	tex, release, err := shared.Acquire(key, create)
//	defer release()
//
// Both types are safe for concurrent use and must not be copied.
package cache
