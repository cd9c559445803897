package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/simsync-go/internal/cli/output"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show worker, buffer and client status",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clients",
				Usage: "List connected WebSocket clients",
			},
		},
		Action: status,
	}
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health",
		Action: health,
	}
}

func status(c *cli.Context) error {
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}

	path := "/status"
	if c.Bool("clients") {
		path += "?clients=1"
	}
	var resp handler.StatusResponse
	if err := client.GetJSON(c.Context, path, &resp); err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, resp, nil)
	}

	w := c.App.Writer
	ready := "no"
	if resp.Ready {
		ready = "yes"
	}
	fmt.Fprintf(w, "Ready:   %s\n", ready)
	fmt.Fprintf(w, "Uptime:  %s\n", resp.Uptime)
	if b := resp.Buffer; b != nil {
		fmt.Fprintf(w, "Buffer:  seq %d, %d models, %d commits, %d abandoned\n",
			b.Seq, b.Models, b.Commits, b.Abandons)
	}
	if in := resp.Inbox; in != nil {
		fmt.Fprintf(w, "Inbox:   %d/%d pending, %d dropped\n", in.Pending, in.Capacity, in.Dropped)
	}
	if h := resp.Hub; h != nil {
		fmt.Fprintf(w, "Clients: %d connected, %d frames dropped\n", h.Clients, h.Dropped)
	}
	fmt.Fprintln(w)

	slots := &output.Table{}
	if flags.Wide {
		slots.SetHeaders("SLOT", "STATE", "ALIVE", "RESTARTS", "ITERATIONS", "FAILURES", "LAST_ALIVE", "LAST_ERROR")
	} else {
		slots.SetHeaders("SLOT", "STATE", "ALIVE", "RESTARTS", "ITERATIONS", "FAILURES")
	}
	for _, s := range resp.Slots {
		row := []string{s.Name, s.State.String(), fmt.Sprint(s.Alive),
			fmt.Sprint(s.Restarts), fmt.Sprint(s.Iterations), fmt.Sprint(s.Failures)}
		if flags.Wide {
			row = append(row, sinceCell(s.LastAlive), orDash(s.LastError))
		}
		slots.AddRow(row...)
	}
	if err := slots.Render(w); err != nil {
		return err
	}

	if len(resp.Clients) > 0 {
		fmt.Fprintln(w)
		clients := &output.Table{}
		clients.SetHeaders("CLIENT", "REMOTE", "CONNECTED", "LAST_SEQ", "SENT", "DROPPED")
		for _, cl := range resp.Clients {
			clients.AddRow(cl.ID, cl.Remote, sinceCell(cl.ConnectedAt),
				fmt.Sprint(cl.LastSeq), fmt.Sprint(cl.Sent), fmt.Sprint(cl.Dropped))
		}
		return clients.Render(w)
	}
	return nil
}

func health(c *cli.Context) error {
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}

	var resp handler.HealthResponse
	if err := client.GetJSON(c.Context, "/health", &resp); err != nil {
		return fmt.Errorf("server unhealthy: %w", err)
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, resp, nil)
	}
	fmt.Fprintf(c.App.Writer, "✓ Server is %s\n", resp.Status)
	fmt.Fprintf(c.App.Writer, "  Target:  %s\n", client.BaseURL())
	fmt.Fprintf(c.App.Writer, "  Version: %s (%s)\n", resp.Version, resp.Commit)
	fmt.Fprintf(c.App.Writer, "  Uptime:  %s\n", resp.Uptime)
	return nil
}

func sinceCell(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Truncate(time.Second).String() + " ago"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
