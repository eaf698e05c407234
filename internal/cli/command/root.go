package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sharded-go/internal/cli/config"
	"github.com/yndnr/sharded-go/internal/cli/connection"
	"github.com/yndnr/sharded-go/internal/cli/output"
	"github.com/yndnr/sharded-go/internal/infra/buildinfo"
)

const metaConfig = "config"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "shardkv-cli",
		Usage:   "shardkv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			PutCommand(),
			DeleteCommand(),
			ListCommand(),
			MoveCommand(),
			StatsCommand(),
			HealthCommand(),
			AdminCommand(),
			ConfigCommand(),
		},
		Before: loadConfig,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server URL (default from profile, then " + config.DefaultServer + ")",
			EnvVars: []string{"SHARDKV_CLI_SERVER"},
		},
		&cli.StringFlag{
			Name:    "admin-token",
			Usage:   "bearer token for /admin routes",
			EnvVars: []string{"SHARDKV_CLI_ADMIN_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "profile from the CLI config file",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file",
			Value: config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:  "no-headers",
			Usage: "omit table headers",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: 30 * time.Second,
		},
	}
}

// GlobalFlags holds the resolved global settings.
type GlobalFlags struct {
	Server     string
	AdminToken string
	Output     output.Format
	NoHeaders  bool
	Timeout    time.Duration
}

func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load CLI config: %w", err)
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

func cliConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// ParseGlobalFlags merges flags with the selected profile. Flags win.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)
	profile := cfg.Profile(c.String("profile"))

	f := &GlobalFlags{
		Server:     profile.Server,
		AdminToken: profile.AdminToken,
		NoHeaders:  c.Bool("no-headers"),
		Timeout:    c.Duration("timeout"),
	}
	if s := c.String("server"); s != "" {
		f.Server = s
	}
	if t := c.String("admin-token"); t != "" {
		f.AdminToken = t
	}

	format := c.String("output")
	if format == "" {
		format = cfg.Output
	}
	if format == "" {
		format = string(output.FormatTable)
	}
	var err error
	if f.Output, err = output.ParseFormat(format); err != nil {
		return nil, err
	}
	return f, nil
}

// session bundles what an action needs: a client, a context bounded by
// --timeout and the output settings.
type session struct {
	client *connection.HTTPClient
	flags  *GlobalFlags
	out    io.Writer
	errOut io.Writer
}

func newSession(c *cli.Context) (*session, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}
	return &session{
		client: connection.NewHTTPClient(flags.Server, flags.AdminToken, flags.Timeout),
		flags:  flags,
		out:    c.App.Writer,
		errOut: c.App.ErrWriter,
	}, nil
}

func (s *session) context(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if s.flags.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.flags.Timeout)
}

func (s *session) print(data any) error {
	f := output.NewFormatter(s.flags.Output)
	if tf, ok := f.(*output.TableFormatter); ok {
		tf.NoHeaders = s.flags.NoHeaders
	}
	return f.Format(s.out, data)
}

// printf writes human-oriented messages, suppressed for json and yaml.
func (s *session) printf(format string, args ...any) {
	if s.flags.Output != output.FormatTable {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}
