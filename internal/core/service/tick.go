package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/worker"
	"github.com/yndnr/simsync-go/internal/sim"
)

// Default tick settings.
const (
	DefaultMaxStep     = 100 * time.Millisecond
	DefaultWaitTimeout = time.Second
)

// ProducerConfig configures ProducerTick.
type ProducerConfig struct {
	// MaxStep clamps the measured time step.
	MaxStep time.Duration
	Logger  *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// ProducerTick returns a worker iteration that opens a write session,
// drains pending commands, steps the world from the workspace and commits
// the result.
//
// The first iteration uses a zero time step. A failed step abandons the
// write session, leaving the committed snapshot untouched, and is reported
// as a transient error.
func ProducerTick(buf *snapbuf.Buffer, stepper sim.Stepper, commands CommandSource, cfg ProducerConfig) worker.Func {
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = DefaultMaxStep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var last time.Time

	return func(ctx context.Context) error {
		now := cfg.Now()
		var dt time.Duration
		if !last.IsZero() {
			dt = now.Sub(last)
			if dt > cfg.MaxStep {
				dt = cfg.MaxStep
			}
			if dt < 0 {
				dt = 0
			}
		}
		last = now

		sess, err := buf.BeginWrite(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return domain.ErrTransientWork.WithCause(err)
		}
		defer sess.Close()

		// Drained only once the session is held, so a cancelled wait
		// leaves pending commands queued.
		var cmds []domain.Command
		if commands != nil {
			cmds = commands.Drain()
		}

		next, err := stepper.Step(sess.Workspace(), sim.Input{DT: dt, Commands: cmds})
		if err != nil {
			sess.Abandon()
			cfg.Logger.Warn("write session abandoned",
				"error", err,
				"base_seq", sess.BaseSeq(),
				"commands_lost", len(cmds))
			return domain.ErrWriteSessionAbandoned.WithCause(err)
		}

		if err := sess.Replace(next); err != nil {
			return domain.ErrTransientWork.WithCause(err)
		}
		if _, err := sess.Commit(); err != nil {
			return domain.ErrTransientWork.WithCause(err)
		}
		return nil
	}
}

// BroadcastConfig configures BroadcastTick.
type BroadcastConfig struct {
	// WaitTimeout bounds one wait for a new commit.
	WaitTimeout time.Duration
	Logger      *slog.Logger
}

// BroadcastTick returns a worker iteration that waits for a commit newer
// than the last one published, reads it and publishes it. The first
// iteration publishes the current snapshot without waiting.
//
// ErrTransportClosed from the publisher ends the worker; other publish
// errors are transient and the same snapshot is retried.
func BroadcastTick(src SnapshotWaiter, pub Publisher, cfg BroadcastConfig) worker.Func {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var (
		lastSeq   uint64
		published bool
	)

	return func(ctx context.Context) error {
		if published {
			waitCtx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
			_, err := src.Wait(waitCtx, lastSeq)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Nothing new within the wait timeout.
				return nil
			}
		}

		snap, seq := src.ReadVersion()
		if err := pub.Publish(ctx, seq, snap); err != nil {
			if errors.Is(err, ErrTransportClosed) {
				return worker.Fatal(err)
			}
			return domain.ErrTransientWork.WithCause(err)
		}

		if published && seq > lastSeq+1 {
			cfg.Logger.Debug("broadcast skipped commits", "from", lastSeq, "to", seq)
		}
		lastSeq = seq
		published = true
		return nil
	}
}

// SnapshotWaiter is a SnapshotSource with change notification.
type SnapshotWaiter interface {
	SnapshotSource
	Wait(ctx context.Context, afterSeq uint64) (uint64, error)
}
