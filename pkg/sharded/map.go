package sharded

import (
	"iter"
	"maps"
)

// Map is a concurrent key/value map. By default each shard is a HashMap
// behind a sync.RWMutex.
type Map[K comparable, V any] struct {
	Table[K, V]
}

// NewMap creates an empty Map.
func NewMap[K comparable, V any](opts ...Option) *Map[K, V] {
	return &Map[K, V]{Table: newTable[K, V](HashMapBackend[K, V], opts)}
}

// FromSeq builds a Map from existing entries, routing each one to its shard.
// Later duplicates of a key overwrite earlier ones.
func FromSeq[K comparable, V any](seq iter.Seq2[K, V], opts ...Option) *Map[K, V] {
	m := NewMap[K, V](opts...)
	m.fill(seq)
	return m
}

// FromMap builds a Map holding every entry of src. Shards are pre-sized for
// len(src) unless WithCapacity says otherwise.
func FromMap[K comparable, V any](src map[K]V, opts ...Option) *Map[K, V] {
	opts = append([]Option{WithCapacity(len(src))}, opts...)
	return FromSeq(maps.All(src), opts...)
}

// Insert stores value under key and returns the previous value, if any.
func (m *Map[K, V]) Insert(key K, value V) (V, bool) {
	g := m.Write(key)
	defer g.Release()
	return g.Insert(value)
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	g := m.Read(key)
	defer g.Release()
	return g.Get()
}

// Remove deletes key and returns the removed value, if any.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	g := m.Write(key)
	defer g.Release()
	return g.Remove()
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	g := m.Read(key)
	defer g.Release()
	return g.Contains()
}

// TryInsert is Insert without blocking. It returns ErrWouldBlock if the
// key's shard is busy.
func (m *Map[K, V]) TryInsert(key K, value V) (V, bool, error) {
	g, err := m.TryWrite(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	defer g.Release()
	prev, ok := g.Insert(value)
	return prev, ok, nil
}

// TryGet is Get without blocking.
func (m *Map[K, V]) TryGet(key K) (V, bool, error) {
	g, err := m.TryRead(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	defer g.Release()
	v, ok := g.Get()
	return v, ok, nil
}

// TryRemove is Remove without blocking.
func (m *Map[K, V]) TryRemove(key K) (V, bool, error) {
	g, err := m.TryWrite(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	defer g.Release()
	v, ok := g.Remove()
	return v, ok, nil
}

// GetOrInsert returns the existing value for key, or stores and returns
// value if key is absent. loaded reports whether the value already existed.
func (m *Map[K, V]) GetOrInsert(key K, value V) (actual V, loaded bool) {
	g := m.Write(key)
	defer g.Release()

	if existing, ok := g.Get(); ok {
		return existing, true
	}
	g.Insert(value)
	return value, false
}

// GetOrInsertFunc is GetOrInsert with a lazily built value. fn runs under
// the shard's write lock and must not touch the same Map.
func (m *Map[K, V]) GetOrInsertFunc(key K, fn func() V) (actual V, loaded bool) {
	g := m.Write(key)
	defer g.Release()

	if existing, ok := g.Get(); ok {
		return existing, true
	}
	value := fn()
	g.Insert(value)
	return value, false
}

// InsertIfAbsent stores value only if key is absent and reports whether it
// did.
func (m *Map[K, V]) InsertIfAbsent(key K, value V) bool {
	_, loaded := m.GetOrInsert(key, value)
	return !loaded
}

// Update atomically replaces the value under key with fn(current, exists)
// and returns the new value.
func (m *Map[K, V]) Update(key K, fn func(value V, exists bool) V) V {
	g := m.Write(key)
	defer g.Release()

	current, exists := g.Get()
	next := fn(current, exists)
	g.Insert(next)
	return next
}

// Values returns a snapshot of all values in unspecified order.
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.Len())
	m.Range(func(_ K, v V) bool {
		values = append(values, v)
		return true
	})
	return values
}
