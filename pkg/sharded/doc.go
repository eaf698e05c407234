// Package sharded provides concurrent keyed collections built from N
// independently locked shards.
//
// Every key is routed to exactly one shard by a pure function of the key and
// the shard count, so operations on keys that land in different shards never
// block each other. Callers acquire a guard on one shard instead of a lock on
// the whole collection:
//
//   - Read / Write block until the shard lock is available
//   - TryRead / TryWrite never block and return ErrWouldBlock instead
//   - Insert, Get, Remove, Contains are built on top of the guards
//
// The lock and collection behind each shard are pluggable:
//
//	m := sharded.NewMap[string, int](
//		sharded.WithShardCount(32),
//		sharded.WithHasher(sharded.XXHash[string]()),
//		sharded.WithLock(sharded.NewMutex),
//	)
//	m.Insert("key", 1)
//	v, ok := m.Get("key")
//
// Holding a guard:
//
//	g := m.Write("key")
//	defer g.Release()
//	g.Insert(2)
//
// Multi-shard operations:
//
// The package does not provide cross-shard transactions. WriteMany acquires
// the shards of several keys in ascending shard order, which is a global lock
// order and cannot deadlock against other WriteMany callers. TryWriteMany is
// the all-or-nothing non-blocking variant. Code that nests individual Write
// calls on different shards is responsible for its own ordering.
//
// The shard count is fixed for the life of a structure. To change it, build a
// new one from the old contents:
//
//	bigger := sharded.FromSeq(m.All(), sharded.WithShardCount(64))
package sharded
