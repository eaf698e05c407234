package sharded

// shard is one independently locked partition.
type shard[K comparable, V any] struct {
	lock Lock
	data Collection[K, V]
}

// shardArray is the fixed-length sequence of shards. Its length never
// changes after construction.
type shardArray[K comparable, V any] struct {
	shards        []*shard[K, V]
	newCollection CollectionFactory[K, V]
}

func newShardArray[K comparable, V any](n, capacity int, lock LockFactory, coll CollectionFactory[K, V]) shardArray[K, V] {
	perShard := 0
	if capacity > 0 {
		perShard = (capacity + n - 1) / n
	}

	a := shardArray[K, V]{
		shards:        make([]*shard[K, V], n),
		newCollection: coll,
	}
	for i := range a.shards {
		a.shards[i] = &shard[K, V]{
			lock: lock(),
			data: coll(perShard),
		}
	}
	return a
}

func (a shardArray[K, V]) at(i int) *shard[K, V] {
	return a.shards[i]
}

func (a shardArray[K, V]) len() int {
	return len(a.shards)
}
