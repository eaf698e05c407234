// Package connection provides the shardkv HTTP client used by shardkv-cli.
//
// HTTPClient speaks the server's JSON envelope and turns error envelopes
// into *APIError values that keep the server's error code.
package connection
