// Package handler provides HTTP request handlers for shardkv.
//
// Values travel as raw bytes: PUT takes the request body verbatim and GET
// returns the stored bytes as application/octet-stream. Everything else,
// errors included, uses the JSON Response envelope.
package handler
