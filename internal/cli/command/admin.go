package command

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sharded-go/internal/cli/connection"
	"github.com/yndnr/sharded-go/internal/cli/output"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server liveness and readiness",
		Action: func(c *cli.Context) error {
			s, err := newSession(c)
			if err != nil {
				return err
			}
			ctx, cancel := s.context(c)
			defer cancel()

			result := map[string]any{"server": s.client.BaseURL()}
			for _, probe := range []string{"health", "ready"} {
				resp, err := s.client.Do(ctx, http.MethodGet, "/"+probe, nil, "")
				if err != nil {
					return err
				}
				err = connection.ParseResponse(resp, nil)
				var apiErr *connection.APIError
				switch {
				case err == nil:
					result[probe] = "ok"
				case errors.As(err, &apiErr):
					result[probe] = apiErr.Message
				default:
					return err
				}
			}
			return s.print(result)
		},
	}
}

// AdminCommand returns the admin subcommand group.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administrative commands (need --admin-token)",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show server version, key count and storage status",
				Action: adminStatus,
			},
			{
				Name:  "backup",
				Usage: "Download a full storage backup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "destination file (default shardkv-<timestamp>.backup)",
					},
					&cli.DurationFlag{
						Name:  "download-timeout",
						Usage: "download timeout, 0 for none",
					},
				},
				Action: adminBackup,
			},
		},
	}
}

func adminStatus(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	status, err := s.client.Status(ctx)
	if err != nil {
		return err
	}
	return s.print(status)
}

func adminBackup(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	// Backups can outlast the global request timeout.
	s.flags.Timeout = c.Duration("download-timeout")
	s.client = connection.NewHTTPClient(s.flags.Server, s.flags.AdminToken, s.flags.Timeout)
	ctx, cancel := s.context(c)
	defer cancel()

	path := c.String("out")
	if path == "" {
		path = fmt.Sprintf("shardkv-%s.backup", time.Now().UTC().Format("20060102T150405Z"))
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	var w io.Writer = f
	var progress *output.Progress
	if s.flags.Output == output.FormatTable {
		progress = output.NewProgress(f, s.errOut, "downloading")
		w = progress
	}

	n, err := s.client.Backup(ctx, w)
	if progress != nil {
		progress.Finish()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("backup: %w", err)
	}

	if s.flags.Output != output.FormatTable {
		return s.print(map[string]any{"file": path, "bytes": n})
	}
	s.printf("wrote %s (%s)\n", path, output.FormatBytes(n))
	return nil
}
