package sharded

// ReadGuard grants shared access to the shard a key routes to.
//
// The guard keeps the caller's key so entries can still be addressed within
// the shard. Release must be called exactly once the guard is no longer
// needed, normally with defer; further calls are no-ops. Any other method
// panics after Release.
type ReadGuard[K comparable, V any] struct {
	key   K
	index int
	shard *shard[K, V]
}

// Key returns the key the guard was acquired for.
func (g *ReadGuard[K, V]) Key() K {
	return g.key
}

// Shard returns the index of the guarded shard.
func (g *ReadGuard[K, V]) Shard() int {
	return g.index
}

// Get returns the value stored under the guard's key.
func (g *ReadGuard[K, V]) Get() (V, bool) {
	return g.live().data.Get(g.key)
}

// Contains reports whether the guard's key is present.
func (g *ReadGuard[K, V]) Contains() bool {
	return g.live().data.Contains(g.key)
}

// View exposes the guarded shard read-only. It must not be used after
// Release.
func (g *ReadGuard[K, V]) View() View[K, V] {
	return readOnly[K, V]{c: g.live().data}
}

// Release unlocks the shard.
func (g *ReadGuard[K, V]) Release() {
	if g.shard == nil {
		return
	}
	s := g.shard
	g.shard = nil
	s.lock.RUnlock()
}

func (g *ReadGuard[K, V]) live() *shard[K, V] {
	if g.shard == nil {
		panic(errGuardReleased)
	}
	return g.shard
}

// WriteGuard grants exclusive access to the shard a key routes to.
// It follows the same release rules as ReadGuard.
type WriteGuard[K comparable, V any] struct {
	key   K
	index int
	shard *shard[K, V]
}

// Key returns the key the guard was acquired for.
func (g *WriteGuard[K, V]) Key() K {
	return g.key
}

// Shard returns the index of the guarded shard.
func (g *WriteGuard[K, V]) Shard() int {
	return g.index
}

// Get returns the value stored under the guard's key.
func (g *WriteGuard[K, V]) Get() (V, bool) {
	return g.live().data.Get(g.key)
}

// Contains reports whether the guard's key is present.
func (g *WriteGuard[K, V]) Contains() bool {
	return g.live().data.Contains(g.key)
}

// Insert stores value under the guard's key and returns the previous value.
func (g *WriteGuard[K, V]) Insert(value V) (V, bool) {
	return g.live().data.Insert(g.key, value)
}

// Remove deletes the guard's key and returns the removed value.
func (g *WriteGuard[K, V]) Remove() (V, bool) {
	return g.live().data.Remove(g.key)
}

// Collection exposes the guarded shard for arbitrary reads and writes.
// Only keys that route to this shard belong in it. It must not be used after
// Release.
func (g *WriteGuard[K, V]) Collection() Collection[K, V] {
	return g.live().data
}

// Release unlocks the shard.
func (g *WriteGuard[K, V]) Release() {
	if g.shard == nil {
		return
	}
	s := g.shard
	g.shard = nil
	s.lock.Unlock()
}

func (g *WriteGuard[K, V]) live() *shard[K, V] {
	if g.shard == nil {
		panic(errGuardReleased)
	}
	return g.shard
}
