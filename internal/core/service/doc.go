// Package service provides the shardkv domain services.
//
// KVService validates requests and drives the key/value repository. It is
// the only entry point the transport layer uses.
package service
