package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/simsync-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell against the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "Shell history file (default: ~/.simsync/history)",
			},
		},
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	historyFile := c.String("history-file")
	if historyFile == "" {
		historyFile = repl.DefaultHistoryFile()
	}

	// Every line runs in a fresh app so flag state does not leak between lines.
	exec := func(ctx context.Context, args []string) error {
		if args[0] == "shell" {
			return fmt.Errorf("already in a shell")
		}
		app := App()
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		app.ExitErrHandler = func(*cli.Context, error) {}

		argv := []string{
			app.Name,
			"--server", flags.Server,
			"--output", string(flags.Output),
			"--timeout", flags.Timeout.String(),
			"--config", c.String("config"),
		}
		if flags.Wide {
			argv = append(argv, "--wide")
		}
		if flags.CAFile != "" {
			argv = append(argv, "--ca-file", flags.CAFile)
		}
		return app.RunContext(ctx, append(argv, args...))
	}

	fmt.Fprintf(c.App.Writer, "Connected to %s. Type 'help' for commands, 'exit' to leave.\n", flags.Server)
	r := repl.New(exec,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithCommands(commandPaths(App().Commands, "")),
		repl.WithHistory(repl.NewHistory(historyFile)),
	)
	return r.Run(c.Context)
}

// commandPaths flattens the command tree into "parent child" paths.
func commandPaths(cmds []*cli.Command, parent string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		path := strings.TrimSpace(parent + " " + cmd.Name)
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path)...)
	}
	return paths
}
