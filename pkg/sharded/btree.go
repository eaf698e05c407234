package sharded

import (
	"cmp"

	"github.com/google/btree"
)

// DefaultBTreeDegree is the node degree used by BTreeBackend.
const DefaultBTreeDegree = 32

// BTreeBackend is a CollectionFactory for ordered keys. It returns a BTreeMap;
// capacity is ignored.
func BTreeBackend[K cmp.Ordered, V any](capacity int) Collection[K, V] {
	return NewBTreeMap[K, V](DefaultBTreeDegree)
}

type btreeEntry[K cmp.Ordered, V any] struct {
	key   K
	value V
}

// BTreeMap is an ordered Collection backed by github.com/google/btree.
// Range visits entries in ascending key order.
type BTreeMap[K cmp.Ordered, V any] struct {
	tree *btree.BTreeG[btreeEntry[K, V]]
}

// NewBTreeMap creates an empty BTreeMap with the given node degree.
func NewBTreeMap[K cmp.Ordered, V any](degree int) *BTreeMap[K, V] {
	if degree < 2 {
		degree = DefaultBTreeDegree
	}
	return &BTreeMap[K, V]{
		tree: btree.NewG(degree, func(a, b btreeEntry[K, V]) bool {
			return cmp.Less(a.key, b.key)
		}),
	}
}

func (m *BTreeMap[K, V]) Insert(key K, value V) (V, bool) {
	prev, ok := m.tree.ReplaceOrInsert(btreeEntry[K, V]{key: key, value: value})
	return prev.value, ok
}

func (m *BTreeMap[K, V]) Get(key K) (V, bool) {
	e, ok := m.tree.Get(btreeEntry[K, V]{key: key})
	return e.value, ok
}

func (m *BTreeMap[K, V]) Remove(key K) (V, bool) {
	e, ok := m.tree.Delete(btreeEntry[K, V]{key: key})
	return e.value, ok
}

func (m *BTreeMap[K, V]) Contains(key K) bool {
	return m.tree.Has(btreeEntry[K, V]{key: key})
}

func (m *BTreeMap[K, V]) Len() int {
	return m.tree.Len()
}

func (m *BTreeMap[K, V]) Range(fn func(key K, value V) bool) {
	m.tree.Ascend(func(e btreeEntry[K, V]) bool {
		return fn(e.key, e.value)
	})
}

// AscendRange calls fn for entries with lo <= key < hi in ascending order.
func (m *BTreeMap[K, V]) AscendRange(lo, hi K, fn func(key K, value V) bool) {
	m.tree.AscendRange(btreeEntry[K, V]{key: lo}, btreeEntry[K, V]{key: hi}, func(e btreeEntry[K, V]) bool {
		return fn(e.key, e.value)
	})
}

// Min returns the smallest entry.
func (m *BTreeMap[K, V]) Min() (K, V, bool) {
	e, ok := m.tree.Min()
	return e.key, e.value, ok
}

// Max returns the largest entry.
func (m *BTreeMap[K, V]) Max() (K, V, bool) {
	e, ok := m.tree.Max()
	return e.key, e.value, ok
}
