// Package logger provides structured logging for shardkv.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the process-wide level
//   - context.go: request-scoped loggers and request IDs
//   - redact.go: masking of credentials and oversized values
//
// The level is held in a shared slog.LevelVar so it can be changed at
// runtime, for example when the config file is edited.
package logger
