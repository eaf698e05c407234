// Package main is the entry point of shardkv-cli, the command-line client
// for a shardkv server.
//
// Usage:
//
//	shardkv-cli put users/1 ada
//	shardkv-cli get users/1
//	shardkv-cli list --prefix users/
//	shardkv-cli move users/1 users/2
//	shardkv-cli stats
//	shardkv-cli --admin-token $TOKEN admin backup --out shardkv.backup
package main
