// Package localserver provides the local control socket.
//
// It listens on a Unix domain socket that only the server's user can open
// and accepts one text command per line:
//
//	status            version, uptime, key and shard counts
//	stats             per-shard key counts
//	loglevel [LEVEL]  show or change the log level
//	shutdown          start a graceful shutdown
//
// Every reply is a single JSON line. Errors are {"error": "..."}.
package localserver
