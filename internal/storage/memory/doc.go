// Package memory holds the live shardkv data set in a sharded map.
//
// Every key lives in exactly one shard; operations on keys in different
// shards proceed in parallel. When a Persister is configured, each change
// is written to it while the shard's write guard is held, so the persisted
// order of changes to a key matches the in-memory order.
//
// Thread Safety:
//
// All Store methods are safe for concurrent use. Move locks the shards of
// both keys through sharded.Map.WriteMany.
package memory
