// Package config provides the shardkv server configuration.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of values and their combinations
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader from defaults, an
// optional YAML file, SHARDKV_ environment variables and command flags.
package config
