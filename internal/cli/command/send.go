package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/simsync-go/internal/cli/output"
	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
)

// SendCommand returns the send subcommand group.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a control command to the simulation",
		Subcommands: []*cli.Command{
			{
				Name:      "set-speed",
				Usage:     "Set a motor speed in rad/s",
				ArgsUsage: "MODEL VALUE",
				Action:    sendSetSpeed,
			},
			{
				Name:   "pause",
				Usage:  "Freeze the simulation clock",
				Action: sendSimple(domain.CommandPause),
			},
			{
				Name:   "resume",
				Usage:  "Resume a paused simulation",
				Action: sendSimple(domain.CommandResume),
			},
			{
				Name:   "reset",
				Usage:  "Restore the initial scene",
				Action: sendSimple(domain.CommandReset),
			},
		},
	}
}

func sendSetSpeed(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: send set-speed MODEL VALUE")
	}
	value, err := strconv.ParseFloat(c.Args().Get(1), 64)
	if err != nil {
		return fmt.Errorf("invalid speed %q: %w", c.Args().Get(1), err)
	}
	return send(c, domain.Command{
		Type:  domain.CommandSetSpeed,
		Model: c.Args().First(),
		Value: value,
	})
}

func sendSimple(t domain.CommandType) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 0 {
			return fmt.Errorf("%s takes no arguments", t)
		}
		return send(c, domain.Command{Type: t})
	}
}

func send(c *cli.Context, cmd domain.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}

	var resp handler.CommandResponse
	if err := client.PostJSON(c.Context, "/commands", cmd, &resp); err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, resp, nil)
	}
	target := string(resp.Type)
	if resp.Model != "" {
		target += " " + resp.Model
	}
	fmt.Fprintf(c.App.Writer, "✓ %s accepted\n", target)
	return nil
}
