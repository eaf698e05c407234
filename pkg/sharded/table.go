package sharded

import (
	"iter"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Table is the generic sharded structure: a Router plus a fixed array of
// locked collections. Map, Set and Tree are typed specialisations of it.
//
// A Table must not be copied after first use.
type Table[K comparable, V any] struct {
	router   Router[K]
	shards   shardArray[K, V]
	observer Observer
}

// NewTable creates an empty Table. Without WithCollection every shard is a
// HashMap.
func NewTable[K comparable, V any](opts ...Option) *Table[K, V] {
	t := newTable[K, V](HashMapBackend[K, V], opts)
	return &t
}

func newTable[K comparable, V any](def CollectionFactory[K, V], opts []Option) Table[K, V] {
	o := buildOptions(opts)
	router := NewRouter[K](o.shardCount, hasherFor[K](o))
	return Table[K, V]{
		router:   router,
		shards:   newShardArray(router.ShardCount(), o.capacity, o.lock, collectionFor(o, def)),
		observer: o.observer,
	}
}

// Route returns the shard index key routes to.
func (t *Table[K, V]) Route(key K) int {
	return t.router.Route(key)
}

// SameShard reports whether a and b route to the same shard, in which case
// one guard covers both.
func (t *Table[K, V]) SameShard(a, b K) bool {
	return t.router.Route(a) == t.router.Route(b)
}

// ShardCount returns the number of shards.
func (t *Table[K, V]) ShardCount() int {
	return t.shards.len()
}

// Read blocks until it holds the key's shard in shared mode.
func (t *Table[K, V]) Read(key K) *ReadGuard[K, V] {
	i := t.router.Route(key)
	s := t.shards.at(i)
	t.acquire(i, s, Shared)
	return &ReadGuard[K, V]{key: key, index: i, shard: s}
}

// Write blocks until it holds the key's shard in exclusive mode.
func (t *Table[K, V]) Write(key K) *WriteGuard[K, V] {
	i := t.router.Route(key)
	s := t.shards.at(i)
	t.acquire(i, s, Exclusive)
	return &WriteGuard[K, V]{key: key, index: i, shard: s}
}

// TryRead acquires the key's shard in shared mode without blocking.
// It returns ErrWouldBlock if the shard is held exclusively.
func (t *Table[K, V]) TryRead(key K) (*ReadGuard[K, V], error) {
	i := t.router.Route(key)
	s := t.shards.at(i)
	if !t.tryAcquire(i, s, Shared) {
		return nil, ErrWouldBlock
	}
	return &ReadGuard[K, V]{key: key, index: i, shard: s}, nil
}

// TryWrite acquires the key's shard in exclusive mode without blocking.
// It returns ErrWouldBlock if the shard is held in any mode.
func (t *Table[K, V]) TryWrite(key K) (*WriteGuard[K, V], error) {
	i := t.router.Route(key)
	s := t.shards.at(i)
	if !t.tryAcquire(i, s, Exclusive) {
		return nil, ErrWouldBlock
	}
	return &WriteGuard[K, V]{key: key, index: i, shard: s}, nil
}

// ReadFunc runs fn while holding a read guard for key. The guard is released
// when fn returns or panics.
func (t *Table[K, V]) ReadFunc(key K, fn func(g *ReadGuard[K, V])) {
	g := t.Read(key)
	defer g.Release()
	fn(g)
}

// WriteFunc runs fn while holding a write guard for key. The guard is
// released when fn returns or panics.
func (t *Table[K, V]) WriteFunc(key K, fn func(g *WriteGuard[K, V])) {
	g := t.Write(key)
	defer g.Release()
	fn(g)
}

func (t *Table[K, V]) acquire(i int, s *shard[K, V], mode Mode) {
	var start time.Time
	if t.observer != nil {
		start = time.Now()
	}

	if mode == Exclusive {
		s.lock.Lock()
	} else {
		s.lock.RLock()
	}

	if t.observer != nil {
		t.observer.Acquired(i, mode, time.Since(start))
	}
}

func (t *Table[K, V]) tryAcquire(i int, s *shard[K, V], mode Mode) bool {
	var ok bool
	if mode == Exclusive {
		ok = s.lock.TryLock()
	} else {
		ok = s.lock.TryRLock()
	}

	if t.observer != nil {
		if ok {
			t.observer.Acquired(i, mode, 0)
		} else {
			t.observer.WouldBlock(i, mode)
		}
	}
	return ok
}

// Len returns the number of entries. Shards are counted one at a time, so
// the result is not a consistent snapshot under concurrent writes.
func (t *Table[K, V]) Len() int {
	n := 0
	for _, s := range t.shards.shards {
		s.lock.RLock()
		n += s.data.Len()
		s.lock.RUnlock()
	}
	return n
}

// IsEmpty reports whether Len is zero.
func (t *Table[K, V]) IsEmpty() bool {
	return t.Len() == 0
}

// Range calls fn for every entry until fn returns false. Each shard is read
// locked while it is visited; fn must not write to the same Table.
func (t *Table[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range t.shards.shards {
		if !rangeShard(s, fn) {
			return
		}
	}
}

func rangeShard[K comparable, V any](s *shard[K, V], fn func(key K, value V) bool) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	more := true
	s.data.Range(func(k K, v V) bool {
		more = fn(k, v)
		return more
	})
	return more
}

// All returns an iterator over every entry, with the same locking as Range.
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.Range(yield)
	}
}

// Keys returns a snapshot of all keys in unspecified order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, t.Len())
	t.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Clear removes every entry, one shard at a time.
func (t *Table[K, V]) Clear() {
	for _, s := range t.shards.shards {
		s.lock.Lock()
		s.data = t.shards.newCollection(0)
		s.lock.Unlock()
	}
}

// ShardStats describes one shard.
type ShardStats struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

// Stats returns the entry count of every shard.
func (t *Table[K, V]) Stats() []ShardStats {
	stats := make([]ShardStats, t.shards.len())
	for i, s := range t.shards.shards {
		s.lock.RLock()
		stats[i] = ShardStats{Index: i, Count: s.data.Len()}
		s.lock.RUnlock()
	}
	return stats
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// fill routes every entry of seq to its shard and inserts it there. Entries
// are bucketed first so each shard is filled by one goroutine under one lock
// acquisition. A key seen twice keeps its last value.
func (t *Table[K, V]) fill(seq iter.Seq2[K, V]) {
	buckets := make([][]entry[K, V], t.shards.len())
	for k, v := range seq {
		i := t.router.Route(k)
		buckets[i] = append(buckets[i], entry[K, V]{key: k, value: v})
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		s := t.shards.at(i)
		g.Go(func() error {
			s.lock.Lock()
			defer s.lock.Unlock()
			for _, e := range bucket {
				s.data.Insert(e.key, e.value)
			}
			return nil
		})
	}
	_ = g.Wait()
}
