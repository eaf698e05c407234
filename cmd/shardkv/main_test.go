package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"shardkv", "version"}))
	assert.Contains(t, out.String(), "shardkv ")
}

func TestFlagOverrides(t *testing.T) {
	var got map[string]any
	run := func(args ...string) error {
		cmd := serveCommand()
		cmd.Action = func(c *cli.Context) error {
			got = flagOverrides(c)
			return nil
		}
		app := &cli.App{Commands: []*cli.Command{cmd}}
		return app.Run(append([]string{"shardkv", "serve"}, args...))
	}

	require.NoError(t, run("--shards", "32", "--in-memory", "--log-level", "debug"))
	assert.Equal(t, map[string]any{
		"shards.count":      32,
		"storage.in_memory": true,
		"log.level":         "debug",
	}, got)

	require.NoError(t, run())
	assert.Empty(t, got)
}
