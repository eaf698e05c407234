package sharded

// View is the read-only part of a shard collection. It is what a ReadGuard
// exposes.
type View[K comparable, V any] interface {
	// Get returns the value stored under key.
	Get(key K) (V, bool)
	// Contains reports whether key is present.
	Contains(key K) bool
	// Len returns the number of entries.
	Len() int
	// Range calls fn for every entry until fn returns false.
	Range(fn func(key K, value V) bool)
}

// Collection is the capability a shard collection must provide.
//
// Implementations are not required to be safe for concurrent use; the shard
// lock serialises access.
type Collection[K comparable, V any] interface {
	View[K, V]
	// Insert stores value under key and returns the previous value, if any.
	Insert(key K, value V) (V, bool)
	// Remove deletes key and returns the removed value, if any.
	Remove(key K) (V, bool)
}

// CollectionFactory creates the collection for one shard. capacity is a
// sizing hint and may be zero.
type CollectionFactory[K comparable, V any] func(capacity int) Collection[K, V]

// HashMapBackend is the default CollectionFactory. It returns a HashMap.
func HashMapBackend[K comparable, V any](capacity int) Collection[K, V] {
	return NewHashMap[K, V](capacity)
}

// HashMap is a Collection over the builtin map.
type HashMap[K comparable, V any] struct {
	items map[K]V
}

// NewHashMap creates a HashMap sized for capacity entries.
func NewHashMap[K comparable, V any](capacity int) *HashMap[K, V] {
	return &HashMap[K, V]{items: make(map[K]V, capacity)}
}

func (m *HashMap[K, V]) Insert(key K, value V) (V, bool) {
	prev, ok := m.items[key]
	m.items[key] = value
	return prev, ok
}

func (m *HashMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *HashMap[K, V]) Remove(key K) (V, bool) {
	v, ok := m.items[key]
	if ok {
		delete(m.items, key)
	}
	return v, ok
}

func (m *HashMap[K, V]) Contains(key K) bool {
	_, ok := m.items[key]
	return ok
}

func (m *HashMap[K, V]) Len() int {
	return len(m.items)
}

func (m *HashMap[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range m.items {
		if !fn(k, v) {
			return
		}
	}
}

// readOnly hides the mutating half of a Collection behind a View.
type readOnly[K comparable, V any] struct {
	c Collection[K, V]
}

func (r readOnly[K, V]) Get(key K) (V, bool)                { return r.c.Get(key) }
func (r readOnly[K, V]) Contains(key K) bool                { return r.c.Contains(key) }
func (r readOnly[K, V]) Len() int                           { return r.c.Len() }
func (r readOnly[K, V]) Range(fn func(key K, value V) bool) { r.c.Range(fn) }
