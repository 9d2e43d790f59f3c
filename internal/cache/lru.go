package cache

// lruNode is a node in a doubly-linked LRU list.
// The node stores its key so eviction can delete from the parent map.
type lruNode[K comparable, V any] struct {
	key   K
	value V
	prev  *lruNode[K, V]
	next  *lruNode[K, V]
}

// lruList is a doubly-linked list ordered by recency.
// The head is the most recently used, the tail the least.
// Not thread-safe; the owning cache holds the lock.
type lruList[K comparable, V any] struct {
	head *lruNode[K, V]
	tail *lruNode[K, V]
	len  int
}

// Len returns the number of nodes in the list.
func (l *lruList[K, V]) Len() int {
	return l.len
}

// PushFront inserts a new most recently used node.
func (l *lruList[K, V]) PushFront(key K, value V) *lruNode[K, V] {
	node := &lruNode[K, V]{key: key, value: value}
	if l.head == nil {
		l.head = node
		l.tail = node
	} else {
		node.next = l.head
		l.head.prev = node
		l.head = node
	}
	l.len++
	return node
}

// MoveToFront marks node as most recently used.
func (l *lruList[K, V]) MoveToFront(node *lruNode[K, V]) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// RemoveOldest unlinks the least recently used node and returns its key.
func (l *lruList[K, V]) RemoveOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	node := l.tail
	l.unlink(node)
	return node.key, true
}

// Clear drops all nodes.
func (l *lruList[K, V]) Clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}

// unlink removes node from the list and clears its links.
func (l *lruList[K, V]) unlink(node *lruNode[K, V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	l.len--
}
