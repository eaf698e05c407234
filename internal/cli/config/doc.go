// Package config defines the shardkv-cli configuration.
//
// The file lives at ~/.shardkv/cli.yaml and names server profiles:
//
//	current: prod
//	output: table
//	profiles:
//	  prod:
//	    server: https://kv.example.com
//	    admin_token: ...
//
// SHARDKV_CLI_ environment variables override the file, with a double
// underscore between levels (SHARDKV_CLI_OUTPUT=json).
package config
