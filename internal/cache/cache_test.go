package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestMemoGetSet(t *testing.T) {
	m := NewMemo[string, int](10)

	m.Set("key1", 42)

	val, ok := m.Get("key1")
	if !ok {
		t.Fatal("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("expected missing key to not exist")
	}
}

func TestMemoDefaultCapacity(t *testing.T) {
	m := NewMemo[string, int](0)
	if got := m.Stats().Capacity; got != DefaultMemoCapacity {
		t.Errorf("capacity = %d, want %d", got, DefaultMemoCapacity)
	}
}

func TestMemoGetOrCompute(t *testing.T) {
	m := NewMemo[string, int](10)
	calls := 0
	compute := func(k string) int {
		calls++
		return len(k)
	}

	if got := m.GetOrCompute("abcd", compute); got != 4 {
		t.Errorf("first GetOrCompute = %d, want 4", got)
	}
	if got := m.GetOrCompute("abcd", compute); got != 4 {
		t.Errorf("second GetOrCompute = %d, want 4", got)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestMemoEvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemo[string, int](3)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	// Touch "a" so "b" becomes the oldest.
	m.Get("a")
	m.Set("d", 4)

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	if _, ok := m.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := m.Get(k); !ok {
			t.Errorf("expected %s to survive eviction", k)
		}
	}
	if ev := m.Stats().Evictions; ev != 1 {
		t.Errorf("Evictions = %d, want 1", ev)
	}
}

func TestMemoSetExistingKeepsSize(t *testing.T) {
	m := NewMemo[string, int](2)
	m.Set("a", 1)
	m.Set("a", 2)
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	if v, _ := m.Get("a"); v != 2 {
		t.Errorf("a = %d, want 2", v)
	}
}

func TestMemoStats(t *testing.T) {
	m := NewMemo[string, int](4)
	m.Set("a", 1)
	m.Get("a")
	m.Get("a")
	m.Get("b")

	s := m.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", s.Hits, s.Misses)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %v, want ~0.667", s.HitRate)
	}
}

func TestMemoClear(t *testing.T) {
	m := NewMemo[string, int](4)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", m.Len())
	}
	m.Set("c", 3)
	if v, ok := m.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) after Clear = %d, %v", v, ok)
	}
}

func TestMemoConcurrent(t *testing.T) {
	m := NewMemo[string, int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := strconv.Itoa((g*200 + i) % 100)
				m.GetOrCompute(k, func(k string) int { n, _ := strconv.Atoi(k); return n })
			}
		}(g)
	}
	wg.Wait()
	if m.Len() > 64 {
		t.Errorf("Len = %d exceeds capacity 64", m.Len())
	}
}

func TestSharedAcquireRelease(t *testing.T) {
	var destroyed []int
	s := NewShared[string, int](func(v int) { destroyed = append(destroyed, v) })

	creates := 0
	create := func() (int, error) {
		creates++
		return 7, nil
	}

	v1, rel1, err := s.Acquire("noise", create)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	v2, rel2, err := s.Acquire("noise", create)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if v1 != 7 || v2 != 7 {
		t.Errorf("values = %d, %d, want 7, 7", v1, v2)
	}
	if creates != 1 {
		t.Errorf("create called %d times, want 1", creates)
	}
	if s.Refs("noise") != 2 {
		t.Errorf("Refs = %d, want 2", s.Refs("noise"))
	}

	rel1()
	rel1() // second call is a no-op
	if len(destroyed) != 0 {
		t.Fatalf("destroyed early: %v", destroyed)
	}
	if s.Refs("noise") != 1 {
		t.Errorf("Refs after one release = %d, want 1", s.Refs("noise"))
	}

	rel2()
	if len(destroyed) != 1 || destroyed[0] != 7 {
		t.Errorf("destroyed = %v, want [7]", destroyed)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}

	// A new Acquire after the last release creates a fresh value.
	_, rel3, _ := s.Acquire("noise", create)
	defer rel3()
	if creates != 2 {
		t.Errorf("create called %d times after recreate, want 2", creates)
	}
}

func TestSharedCreateError(t *testing.T) {
	s := NewShared[string, int](nil)
	boom := errors.New("boom")

	_, release, err := s.Acquire("k", func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	release()
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after failed create", s.Len())
	}
}

func TestLRUList(t *testing.T) {
	var l lruList[string, int]
	a := l.PushFront("a", 1)
	l.PushFront("b", 2)
	l.PushFront("c", 3)

	l.MoveToFront(a)
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	k, ok := l.RemoveOldest()
	if !ok || k != "b" {
		t.Errorf("RemoveOldest = %q, %v, want b", k, ok)
	}
	l.Clear()
	if _, ok := l.RemoveOldest(); ok {
		t.Error("RemoveOldest on empty list returned ok")
	}
}
