// Package main is the entry point of the shardkv server.
//
// shardkv serves a key/value store over HTTP. Keys are spread over a fixed
// number of independently locked shards and persisted in Badger.
//
// Usage:
//
//	shardkv serve --config /etc/shardkv/config.yaml
//	shardkv serve --in-memory --shards 32 --addr :5080 --resp-addr :6380
//	shardkv version
package main
