// Package storage wires the shardkv data set to durable storage.
//
// Architecture:
//
//   - memory.Store: the live data set, a sharded map
//   - BadgerEngine: write-through persistence in Badger v3
//   - Engine: opens both, loads persisted entries into memory on startup
//
// Every change is written to Badger while the shard's write guard is held,
// then applied in memory. A restart rebuilds the sharded map from a full
// Badger scan, redistributing entries over the configured shard count, so
// the shard count can change between runs.
package storage
