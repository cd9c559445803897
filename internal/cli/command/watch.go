package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/simsync-go/internal/cli/connection"
	"github.com/yndnr/simsync-go/internal/cli/output"
	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream snapshots over WebSocket until Ctrl+C",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Stop after N snapshots (0 = unlimited)",
			},
			&cli.StringSliceFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Only show these models",
			},
		},
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}
	count := c.Int("count")
	if count < 0 {
		return fmt.Errorf("--count must not be negative")
	}
	filter := c.StringSlice("model")

	sigCtx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	stream, err := client.Dial(ctx)
	if err != nil {
		return err
	}

	frames := make(chan wsserver.SnapshotMessage)
	g, gctx := errgroup.WithContext(ctx)

	// reader
	g.Go(func() error {
		defer close(frames)
		for {
			msg, err := stream.Next()
			if err != nil {
				if gctx.Err() != nil || connection.IsNormalClose(err) {
					return nil
				}
				return fmt.Errorf("watch: %w", err)
			}
			select {
			case frames <- msg:
			case <-gctx.Done():
				return nil
			}
		}
	})

	// Closing the stream is what unblocks the reader.
	g.Go(func() error {
		<-gctx.Done()
		_ = stream.Close()
		return nil
	})

	g.Go(func() error {
		defer cancel()
		seen := 0
		for msg := range frames {
			if err := printFrame(c, flags, filterModels(msg, filter)); err != nil {
				return err
			}
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		}
		return nil
	})

	return g.Wait()
}

func filterModels(msg wsserver.SnapshotMessage, names []string) wsserver.SnapshotMessage {
	if len(names) == 0 {
		return msg
	}
	kept := make(domain.Snapshot, len(names))
	for _, name := range names {
		if st, ok := msg.Models[name]; ok {
			kept[name] = st
		}
	}
	msg.Models = kept
	return msg
}

func printFrame(c *cli.Context, flags *GlobalFlags, msg wsserver.SnapshotMessage) error {
	w := c.App.Writer
	switch flags.Output {
	case output.FormatJSON:
		// One frame per line.
		return (&output.JSONFormatter{Compact: true}).Format(w, msg)
	case output.FormatYAML:
		fmt.Fprintln(w, "---")
		return (&output.YAMLFormatter{}).Format(w, msg)
	default:
		fmt.Fprintf(w, "seq %d\n", msg.Seq)
		if err := snapshotTable(msg.Models, flags.Wide).Render(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return nil
	}
}
