package sharded

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Tree is a concurrent map over ordered keys whose shards are B-trees.
//
// Ordering holds within a shard. Ascend and SortedKeys merge per-shard
// snapshots to present one ascending order across the whole Tree.
type Tree[K cmp.Ordered, V any] struct {
	Map[K, V]
}

// NewTree creates an empty Tree.
func NewTree[K cmp.Ordered, V any](opts ...Option) *Tree[K, V] {
	return &Tree[K, V]{Map: Map[K, V]{Table: newTable[K, V](BTreeBackend[K, V], opts)}}
}

// TreeFromSeq builds a Tree from existing entries.
func TreeFromSeq[K cmp.Ordered, V any](seq iter.Seq2[K, V], opts ...Option) *Tree[K, V] {
	t := NewTree[K, V](opts...)
	t.fill(seq)
	return t
}

// TreeFromMap builds a Tree holding every entry of src.
func TreeFromMap[K cmp.Ordered, V any](src map[K]V, opts ...Option) *Tree[K, V] {
	return TreeFromSeq(maps.All(src), opts...)
}

// Ascend calls fn for every entry in ascending key order until fn returns
// false. It works on a snapshot: shards are copied one at a time under their
// read lock and fn runs with no lock held.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	for _, e := range t.snapshot() {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// AscendRange is Ascend restricted to lo <= key < hi.
func (t *Tree[K, V]) AscendRange(lo, hi K, fn func(key K, value V) bool) {
	for _, e := range t.snapshot() {
		if e.key < lo {
			continue
		}
		if e.key >= hi || !fn(e.key, e.value) {
			return
		}
	}
}

// SortedKeys returns all keys in ascending order.
func (t *Tree[K, V]) SortedKeys() []K {
	entries := t.snapshot()
	keys := make([]K, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

func (t *Tree[K, V]) snapshot() []entry[K, V] {
	entries := make([]entry[K, V], 0, t.Len())
	t.Range(func(k K, v V) bool {
		entries = append(entries, entry[K, V]{key: k, value: v})
		return true
	})
	slices.SortFunc(entries, func(a, b entry[K, V]) int {
		return cmp.Compare(a.key, b.key)
	})
	return entries
}
