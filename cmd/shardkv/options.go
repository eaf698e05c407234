package main

import (
	"fmt"

	"github.com/yndnr/sharded-go/internal/server/config"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

// shardOptions translates the shards section into options for the store's
// sharded map.
func shardOptions(cfg config.ShardsSection, obs sharded.Observer) ([]sharded.Option, error) {
	opts := []sharded.Option{sharded.WithShardCount(cfg.Count)}

	switch cfg.Hasher {
	case "maphash":
		opts = append(opts, sharded.WithHasher[string](sharded.NewMapHasher[string]()))
	case "murmur3":
		opts = append(opts, sharded.WithHasher(sharded.Murmur3[string]()))
	case "xxhash":
		opts = append(opts, sharded.WithHasher(sharded.XXHash[string]()))
	case "fnv1a":
		opts = append(opts, sharded.WithHasher(sharded.FNV1a[string]()))
	default:
		return nil, fmt.Errorf("shards.hasher: unknown hasher %q", cfg.Hasher)
	}

	switch cfg.Lock {
	case "rwmutex":
		opts = append(opts, sharded.WithLock(sharded.NewRWMutex))
	case "mutex":
		opts = append(opts, sharded.WithLock(sharded.NewMutex))
	case "weighted":
		opts = append(opts, sharded.WithLock(sharded.Weighted(cfg.MaxReaders)))
	default:
		return nil, fmt.Errorf("shards.lock: unknown lock %q", cfg.Lock)
	}

	switch cfg.Collection {
	case "hashmap":
		opts = append(opts, sharded.WithCollection[string, []byte](sharded.HashMapBackend[string, []byte]))
	case "btree":
		opts = append(opts, sharded.WithCollection[string, []byte](sharded.BTreeBackend[string, []byte]))
	default:
		return nil, fmt.Errorf("shards.collection: unknown collection %q", cfg.Collection)
	}

	if obs != nil {
		opts = append(opts, sharded.WithObserver(obs))
	}
	return opts, nil
}
