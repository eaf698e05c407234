package sharded

import (
	"fmt"
	"reflect"
)

// DefaultShardCount is the shard count used when none is configured.
const DefaultShardCount = 16

type options struct {
	shardCount int
	capacity   int
	hasher     any
	lock       LockFactory
	collection any
	observer   Observer
}

// Option configures a sharded structure at construction time.
type Option func(*options)

// WithShardCount sets the number of shards. Powers of two route with a mask,
// other counts with a modulo. Non-positive values keep the default.
func WithShardCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shardCount = n
		}
	}
}

// WithCapacity pre-sizes every shard for an even split of total entries.
func WithCapacity(total int) Option {
	return func(o *options) {
		if total > 0 {
			o.capacity = total
		}
	}
}

// WithHasher sets the routing hasher. Its key type must match the key type
// of the structure being built, otherwise construction panics.
func WithHasher[K comparable](h Hasher[K]) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithLock sets the lock backend of every shard.
func WithLock(f LockFactory) Option {
	return func(o *options) {
		if f != nil {
			o.lock = f
		}
	}
}

// WithCollection sets the collection backend of every shard. Its key and
// value types must match the structure being built, otherwise construction
// panics.
func WithCollection[K comparable, V any](f CollectionFactory[K, V]) Option {
	return func(o *options) {
		if f != nil {
			o.collection = f
		}
	}
}

// WithObserver installs an Observer notified on every keyed acquisition.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

func buildOptions(opts []Option) options {
	o := options{
		shardCount: DefaultShardCount,
		lock:       NewRWMutex,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func hasherFor[K comparable](o options) Hasher[K] {
	if o.hasher == nil {
		return NewMapHasher[K]()
	}
	h, ok := o.hasher.(Hasher[K])
	if !ok {
		panic(fmt.Sprintf("sharded: hasher %T cannot hash keys of type %v", o.hasher, reflect.TypeFor[K]()))
	}
	return h
}

func collectionFor[K comparable, V any](o options, def CollectionFactory[K, V]) CollectionFactory[K, V] {
	if o.collection == nil {
		return def
	}
	f, ok := o.collection.(CollectionFactory[K, V])
	if !ok {
		panic(fmt.Sprintf("sharded: collection backend %T does not hold %v -> %v",
			o.collection, reflect.TypeFor[K](), reflect.TypeFor[V]()))
	}
	return f
}
