package sharded

import (
	"fmt"
	"slices"
)

// MultiGuard holds exclusive access to every shard that a set of keys routes
// to. Shards are acquired in ascending index order and released in reverse.
//
// Keys passed to Get, Insert and Remove must route to one of the held
// shards; any other key panics.
type MultiGuard[K comparable, V any] struct {
	table   *Table[K, V]
	keys    []K
	indices []int
	held    bool
}

// WriteMany blocks until it holds every shard the keys route to. Because all
// callers lock in ascending shard order, concurrent WriteMany calls cannot
// deadlock each other, whatever order their keys are given in.
func (t *Table[K, V]) WriteMany(keys ...K) *MultiGuard[K, V] {
	indices := t.shardIndices(keys)
	for _, i := range indices {
		t.acquire(i, t.shards.at(i), Exclusive)
	}
	return &MultiGuard[K, V]{table: t, keys: keys, indices: indices, held: true}
}

// TryWriteMany acquires every shard the keys route to without blocking. If
// any shard is busy, the shards already taken are released and
// ErrWouldBlock is returned.
func (t *Table[K, V]) TryWriteMany(keys ...K) (*MultiGuard[K, V], error) {
	indices := t.shardIndices(keys)
	for n, i := range indices {
		if t.tryAcquire(i, t.shards.at(i), Exclusive) {
			continue
		}
		for j := n - 1; j >= 0; j-- {
			t.shards.at(indices[j]).lock.Unlock()
		}
		return nil, ErrWouldBlock
	}
	return &MultiGuard[K, V]{table: t, keys: keys, indices: indices, held: true}, nil
}

func (t *Table[K, V]) shardIndices(keys []K) []int {
	indices := make([]int, len(keys))
	for n, k := range keys {
		indices[n] = t.router.Route(k)
	}
	slices.Sort(indices)
	return slices.Compact(indices)
}

// Keys returns the keys the guard was acquired for.
func (m *MultiGuard[K, V]) Keys() []K {
	return m.keys
}

// Shards returns the held shard indices in ascending order.
func (m *MultiGuard[K, V]) Shards() []int {
	return m.indices
}

// Get returns the value stored under key.
func (m *MultiGuard[K, V]) Get(key K) (V, bool) {
	return m.shardFor(key).data.Get(key)
}

// Contains reports whether key is present.
func (m *MultiGuard[K, V]) Contains(key K) bool {
	return m.shardFor(key).data.Contains(key)
}

// Insert stores value under key and returns the previous value.
func (m *MultiGuard[K, V]) Insert(key K, value V) (V, bool) {
	return m.shardFor(key).data.Insert(key, value)
}

// Remove deletes key and returns the removed value.
func (m *MultiGuard[K, V]) Remove(key K) (V, bool) {
	return m.shardFor(key).data.Remove(key)
}

// Release unlocks every held shard in descending order. Further calls are
// no-ops.
func (m *MultiGuard[K, V]) Release() {
	if !m.held {
		return
	}
	m.held = false
	for j := len(m.indices) - 1; j >= 0; j-- {
		m.table.shards.at(m.indices[j]).lock.Unlock()
	}
}

func (m *MultiGuard[K, V]) shardFor(key K) *shard[K, V] {
	if !m.held {
		panic(errGuardReleased)
	}
	i := m.table.router.Route(key)
	if _, ok := slices.BinarySearch(m.indices, i); !ok {
		panic(fmt.Sprintf("sharded: key %v routes to shard %d, which this guard does not hold", key, i))
	}
	return m.table.shards.at(i)
}
