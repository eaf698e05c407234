package command

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sharded-go/internal/cli/connection"
	"github.com/yndnr/sharded-go/internal/cli/output"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the value of a key",
		ArgsUsage: "KEY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "write the value to FILE instead of stdout",
			},
		},
		Action: getAction,
	}
}

func getAction(c *cli.Context) error {
	key, err := requireArgs(c, 1)
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	value, err := s.client.Get(ctx, key[0])
	if err != nil {
		return err
	}

	if path := c.String("out"); path != "" {
		return os.WriteFile(path, value, 0o644)
	}
	if s.flags.Output != output.FormatTable {
		return s.print(map[string]any{"key": key[0], "value": string(value)})
	}
	_, err = s.out.Write(value)
	return err
}

// PutCommand returns the put command.
func PutCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Aliases:   []string{"set"},
		Usage:     "Store a value under a key",
		ArgsUsage: "KEY [VALUE|-]",
		Description: "The value is taken from the second argument, from --file, " +
			"or from stdin when the argument is \"-\".",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "read the value from FILE",
			},
			&cli.BoolFlag{
				Name:  "nowait",
				Usage: "fail instead of waiting when the key's shard is busy",
			},
		},
		Action: putAction,
	}
}

func putAction(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) < 1 || len(args) > 2 {
		return cli.Exit("usage: put KEY [VALUE|-]", 2)
	}

	var value io.Reader
	switch {
	case c.String("file") != "":
		if len(args) == 2 {
			return cli.Exit("put: give either VALUE or --file, not both", 2)
		}
		f, err := os.Open(c.String("file"))
		if err != nil {
			return err
		}
		defer f.Close()
		value = f
	case len(args) == 2 && args[1] == "-":
		value = c.App.Reader
		if value == nil {
			value = os.Stdin
		}
	case len(args) == 2:
		value = strings.NewReader(args[1])
	default:
		value = bytes.NewReader(nil)
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	res, err := s.client.Put(ctx, args[0], value, c.Bool("nowait"))
	if err != nil {
		return err
	}
	if s.flags.Output != output.FormatTable {
		return s.print(res)
	}
	verb := "updated"
	if res.Created {
		verb = "created"
	}
	s.printf("%s %s (shard %d)\n", verb, args[0], res.Shard)
	return nil
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"del", "rm"},
		Usage:     "Delete keys",
		ArgsUsage: "KEY...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ignore-missing",
				Usage: "do not fail on keys that do not exist",
			},
		},
		Action: deleteAction,
	}
}

func deleteAction(c *cli.Context) error {
	keys := c.Args().Slice()
	if len(keys) == 0 {
		return cli.Exit("usage: delete KEY...", 2)
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	for _, key := range keys {
		if err := s.client.Delete(ctx, key); err != nil {
			if c.Bool("ignore-missing") && connection.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("delete %s: %w", key, err)
		}
		s.printf("deleted %s\n", key)
	}
	return nil
}

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List keys in ascending order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "only keys starting with PREFIX",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum number of keys (server default when 0)",
			},
		},
		Action: listAction,
	}
}

type keyList connection.ListResult

func (l keyList) Table() *output.Table {
	t := output.NewTable("KEY")
	for _, k := range l.Keys {
		t.AddRow(k)
	}
	return t
}

func listAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	res, err := s.client.List(ctx, c.String("prefix"), c.Int("limit"))
	if err != nil {
		return err
	}
	if s.flags.Output != output.FormatTable {
		return s.print(res)
	}
	if err := s.print(keyList(*res)); err != nil {
		return err
	}
	if res.Truncated {
		fmt.Fprintf(s.errOut, "(truncated after %d keys, use --limit)\n", len(res.Keys))
	}
	return nil
}

// MoveCommand returns the move command.
func MoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Aliases:   []string{"mv"},
		Usage:     "Atomically rename a key",
		ArgsUsage: "FROM TO",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "replace TO if it exists",
			},
		},
		Action: moveAction,
	}
}

func moveAction(c *cli.Context) error {
	args, err := requireArgs(c, 2)
	if err != nil {
		return err
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	res, err := s.client.Move(ctx, args[0], args[1], c.Bool("overwrite"))
	if err != nil {
		return err
	}
	if s.flags.Output != output.FormatTable {
		return s.print(res)
	}
	s.printf("moved %s (shard %d) -> %s (shard %d)\n", res.From, res.FromShard, res.To, res.ToShard)
	return nil
}

// StatsCommand returns the stats command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show how keys are spread over shards",
		Action: statsAction,
	}
}

type shardTable connection.StatsResult

func (st shardTable) Table() *output.Table {
	t := output.NewTable("SHARD", "COUNT")
	for _, sh := range st.Shards {
		t.AddRow(sh.Index, sh.Count)
	}
	return t
}

func statsAction(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.context(c)
	defer cancel()

	res, err := s.client.Stats(ctx)
	if err != nil {
		return err
	}
	if s.flags.Output != output.FormatTable {
		return s.print(res)
	}
	if err := s.print(shardTable(*res)); err != nil {
		return err
	}
	s.printf("\n%d keys in %d shards\n", res.Keys, len(res.Shards))
	return nil
}

func requireArgs(c *cli.Context, n int) ([]string, error) {
	args := c.Args().Slice()
	if len(args) != n {
		return nil, cli.Exit(fmt.Sprintf("%s: expected %d argument(s), got %d (usage: %s %s)",
			c.Command.Name, n, len(args), c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return args, nil
}
