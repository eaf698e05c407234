package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sharded-go/internal/infra/buildinfo"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "shardkv",
		Usage:   "sharded key/value server",
		Version: buildinfo.String(),
		Commands: []*cli.Command{
			serveCommand(),
			{
				Name:  "version",
				Usage: "Print build information",
				Action: func(c *cli.Context) error {
					info := buildinfo.Get()
					fmt.Fprintf(c.App.Writer, "shardkv %s (commit %s, built %s, %s)\n",
						info.Version, info.Commit, info.BuildTime, info.GoVersion)
					return nil
				},
			},
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (YAML)",
				EnvVars: []string{"SHARDKV_CONFIG"},
			},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "resp-addr", Usage: "Redis protocol listen address (disabled when empty)"},
			&cli.StringFlag{Name: "data-dir", Usage: "Badger data directory"},
			&cli.IntFlag{Name: "shards", Usage: "number of shards"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "in-memory", Usage: "keep data in memory only"},
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, c.String("config"), flagOverrides(c))
		},
	}
}

// flagOverrides maps the flags that were set to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	o := make(map[string]any)
	if c.IsSet("addr") {
		o["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("resp-addr") {
		o["server.resp.addr"] = c.String("resp-addr")
	}
	if c.IsSet("data-dir") {
		o["storage.data_dir"] = c.String("data-dir")
	}
	if c.IsSet("shards") {
		o["shards.count"] = c.Int("shards")
	}
	if c.IsSet("log-level") {
		o["log.level"] = c.String("log-level")
	}
	if c.IsSet("in-memory") {
		o["storage.in_memory"] = c.Bool("in-memory")
	}
	return o
}
