package sharded

// Router maps keys to shard indices in [0, ShardCount()).
//
// A Router is immutable after construction and safe for concurrent use.
type Router[K comparable] struct {
	hasher Hasher[K]
	n      uint64
	mask   uint64
	pow2   bool
}

// NewRouter creates a router over n shards. A non-positive n selects
// DefaultShardCount and a nil hasher selects a new MapHasher.
func NewRouter[K comparable](n int, hasher Hasher[K]) Router[K] {
	if n <= 0 {
		n = DefaultShardCount
	}
	if hasher == nil {
		hasher = NewMapHasher[K]()
	}

	r := Router[K]{
		hasher: hasher,
		n:      uint64(n),
	}
	if n&(n-1) == 0 {
		r.pow2 = true
		r.mask = uint64(n - 1)
	}
	return r
}

// Route returns the shard index for key.
func (r Router[K]) Route(key K) int {
	h := r.hasher.Hash(key)
	if r.pow2 {
		return int(h & r.mask)
	}
	return int(h % r.n)
}

// ShardCount returns the number of shards the router distributes over.
func (r Router[K]) ShardCount() int {
	return int(r.n)
}
