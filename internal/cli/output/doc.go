// Package output provides output formatting for shardkv-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned plain-text tables
//   - json.go, yaml.go: machine-readable output
//   - progress.go: byte counter for backup downloads
package output
