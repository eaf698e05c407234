// Package command defines the shardkv-cli commands.
//
// Commands are built with urfave/cli/v2. Each action resolves a
// connection.HTTPClient from the global flags, falling back to the active
// profile in the CLI config file, and prints results through the output
// package in the format chosen with --output.
package command
