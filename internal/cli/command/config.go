package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	serverconfig "github.com/yndnr/sharded-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the resolved CLI settings",
				Action: configShow,
			},
			{
				Name:      "test",
				Usage:     "Validate a server configuration file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "print the merged configuration with secrets masked",
					},
				},
				Action: configTest,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	profile := c.String("profile")
	if profile == "" {
		profile = cliConfig(c).Current
	}

	token := "(none)"
	if s.flags.AdminToken != "" {
		token = "(set)"
	}
	return s.print(map[string]any{
		"config_file": c.String("config"),
		"profile":     profile,
		"server":      s.client.BaseURL(),
		"admin_token": token,
		"output":      string(s.flags.Output),
		"timeout":     s.flags.Timeout.String(),
	})
}

func configTest(c *cli.Context) error {
	args, err := requireArgs(c, 1)
	if err != nil {
		return err
	}
	cfg, _, err := serverconfig.Load(args[0], nil)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", args[0], err), 1)
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	if c.Bool("print") {
		return s.print(serverconfig.Sanitize(cfg))
	}
	s.printf("%s: configuration is valid\n", args[0])
	return nil
}
