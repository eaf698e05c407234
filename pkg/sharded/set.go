package sharded

import (
	"iter"
	"slices"
)

// Set is a concurrent set of keys.
type Set[K comparable] struct {
	Table[K, struct{}]
}

// NewSet creates an empty Set.
func NewSet[K comparable](opts ...Option) *Set[K] {
	return &Set[K]{Table: newTable[K, struct{}](HashMapBackend[K, struct{}], opts)}
}

// SetFromSeq builds a Set holding every key of seq.
func SetFromSeq[K comparable](seq iter.Seq[K], opts ...Option) *Set[K] {
	s := NewSet[K](opts...)
	s.fill(func(yield func(K, struct{}) bool) {
		for k := range seq {
			if !yield(k, struct{}{}) {
				return
			}
		}
	})
	return s
}

// SetFromSlice builds a Set holding every element of keys.
func SetFromSlice[K comparable](keys []K, opts ...Option) *Set[K] {
	opts = append([]Option{WithCapacity(len(keys))}, opts...)
	return SetFromSeq(slices.Values(keys), opts...)
}

// Insert adds key and reports whether it was newly added.
func (s *Set[K]) Insert(key K) bool {
	g := s.Write(key)
	defer g.Release()
	_, existed := g.Insert(struct{}{})
	return !existed
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key K) bool {
	g := s.Read(key)
	defer g.Release()
	return g.Contains()
}

// Remove deletes key and reports whether it was present.
func (s *Set[K]) Remove(key K) bool {
	g := s.Write(key)
	defer g.Release()
	_, existed := g.Remove()
	return existed
}

// TryInsert is Insert without blocking.
func (s *Set[K]) TryInsert(key K) (bool, error) {
	g, err := s.TryWrite(key)
	if err != nil {
		return false, err
	}
	defer g.Release()
	_, existed := g.Insert(struct{}{})
	return !existed, nil
}

// Members returns an iterator over the keys in unspecified order.
func (s *Set[K]) Members() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.Range(func(k K, _ struct{}) bool {
			return yield(k)
		})
	}
}
