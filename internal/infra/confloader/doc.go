// Package confloader loads shardkv configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (passed in through LoadMap)
//  2. Environment variables (SHARDKV_ prefix)
//  3. A YAML configuration file
//  4. Defaults (passed in through LoadMap before anything else)
//
// Watcher reports edits to the configuration file so parts of the
// configuration can be re-applied without a restart.
package confloader
