// Package httpserver provides the HTTP/HTTPS server for shardkv.
//
// It uses the standard library net/http mux with method and wildcard
// patterns. Every route gets the same middleware chain: request ID, panic
// recovery, access logging with metrics and per-client rate limiting.
// Admin routes also require the admin bearer token.
package httpserver
