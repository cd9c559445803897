package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// Func is one iteration of work. ctx is cancelled when the worker is asked
// to stop; long-running iterations should watch it.
type Func func(ctx context.Context) error

// Observer receives iteration failures, typically to feed metrics.
type Observer interface {
	OnIterationFailure(name string, err error, fatal bool)
}

// Fatal marks err as fatal: the worker loop exits after this iteration.
func Fatal(err error) error {
	if err == nil {
		return domain.ErrFatalWork
	}
	if IsFatal(err) {
		return err
	}
	return domain.ErrFatalWork.WithCause(err)
}

// IsFatal reports whether err ends the worker loop.
func IsFatal(err error) bool {
	return errors.Is(err, domain.ErrFatalWork)
}

// Option configures a Worker.
type Option func(*Worker)

// WithInterval paces iteration starts at least d apart. The wait between
// iterations ends early when the worker is stopped.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithMaxConsecutiveFailures turns n transient failures in a row into a
// fatal exit. Zero disables the limit.
func WithMaxConsecutiveFailures(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxFailures = n
		}
	}
}

// WithCleanup registers fn to run once when the loop exits.
func WithCleanup(fn func()) Option {
	return func(w *Worker) {
		w.cleanup = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver sets the failure observer.
func WithObserver(o Observer) Option {
	return func(w *Worker) {
		w.observer = o
	}
}

// Stats is a point-in-time view of a worker.
type Stats struct {
	Name       string    `json:"name"`
	Alive      bool      `json:"alive"`
	Iterations uint64    `json:"iterations"`
	Failures   uint64    `json:"failures"`
	LastBeat   time.Time `json:"last_beat"`
}

// Worker runs a Func in a loop on its own goroutine.
type Worker struct {
	name        string
	fn          Func
	interval    time.Duration
	maxFailures int
	cleanup     func()
	logger      *slog.Logger
	observer    Observer

	ctx    context.Context
	cancel context.CancelFunc

	launched atomic.Bool
	started  chan struct{}
	done     chan struct{}

	iterations atomic.Uint64
	failures   atomic.Uint64
	lastBeat   atomic.Int64

	mu  sync.Mutex
	err error
}

// New creates a worker. It does not start it.
func New(name string, fn Func, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		name:    name,
		fn:      fn,
		logger:  slog.Default(),
		ctx:     ctx,
		cancel:  cancel,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("worker", name)
	return w
}

// Name returns the worker name.
func (w *Worker) Name() string {
	return w.name
}

// Start runs the loop on a new goroutine. Calling Start on a worker that
// already runs (or ran) does nothing.
func (w *Worker) Start() {
	if !w.launched.CompareAndSwap(false, true) {
		return
	}
	go w.loop()
}

// Run runs the loop on the calling goroutine and returns the fatal error
// that ended it, or nil after Stop. If the worker was already started, Run
// waits for it to finish.
func (w *Worker) Run() error {
	if w.launched.CompareAndSwap(false, true) {
		w.loop()
	} else {
		<-w.done
	}
	return w.Err()
}

// Stop asks the loop to exit after the current iteration. It does not
// wait; use Join for that. Stop is idempotent and may be called before
// Start, in which case the loop exits without running an iteration.
func (w *Worker) Stop() {
	w.cancel()
}

// Join waits up to timeout for the loop to exit and reports whether it did.
// A worker that was never started is considered joined.
func (w *Worker) Join(timeout time.Duration) bool {
	if !w.launched.Load() {
		return true
	}

	if timeout <= 0 {
		select {
		case <-w.done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}

// Alive reports whether the loop has started and not yet exited.
func (w *Worker) Alive() bool {
	if !w.launched.Load() {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Started is closed when the loop begins.
func (w *Worker) Started() <-chan struct{} {
	return w.started
}

// Done is closed when the loop has exited and cleanup has run.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Err returns the fatal error that ended the loop, or nil.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// LastBeat returns the time the loop last completed an iteration.
func (w *Worker) LastBeat() time.Time {
	ns := w.lastBeat.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Stats returns current worker statistics.
func (w *Worker) Stats() Stats {
	return Stats{
		Name:       w.name,
		Alive:      w.Alive(),
		Iterations: w.iterations.Load(),
		Failures:   w.failures.Load(),
		LastBeat:   w.LastBeat(),
	}
}

func (w *Worker) loop() {
	close(w.started)
	defer close(w.done)
	defer w.runCleanup()

	w.beat()
	w.logger.Debug("worker started")

	var (
		timer       *time.Timer
		consecutive int
		next        time.Time
	)
	if w.interval > 0 {
		timer = time.NewTimer(0)
		<-timer.C
		defer timer.Stop()
	}

	for {
		if w.ctx.Err() != nil {
			w.logger.Debug("worker stopped")
			return
		}

		if timer != nil && !next.IsZero() {
			if wait := time.Until(next); wait > 0 {
				timer.Reset(wait)
				select {
				case <-timer.C:
				case <-w.ctx.Done():
					w.logger.Debug("worker stopped")
					return
				}
			}
		}
		next = time.Now().Add(w.interval)

		err := w.iterate()
		w.iterations.Add(1)
		w.beat()

		if err == nil {
			consecutive = 0
			continue
		}
		if w.ctx.Err() != nil && errors.Is(err, context.Canceled) {
			continue
		}

		w.failures.Add(1)

		if IsFatal(err) {
			w.fail(err)
			return
		}

		consecutive++
		w.logger.Warn("iteration failed", "error", err, "consecutive", consecutive)
		if w.observer != nil {
			w.observer.OnIterationFailure(w.name, err, false)
		}

		if w.maxFailures > 0 && consecutive >= w.maxFailures {
			w.fail(Fatal(fmt.Errorf("%d consecutive failures: %w", consecutive, err)))
			return
		}
	}
}

// iterate runs one iteration, converting a panic into ErrWorkPanic.
func (w *Worker) iterate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("iteration panicked", "panic", r, "stack", string(debug.Stack()))
			err = domain.ErrWorkPanic.WithCause(fmt.Errorf("%v", r))
		}
	}()
	return w.fn(w.ctx)
}

func (w *Worker) fail(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()

	w.logger.Error("worker exiting on fatal error", "error", err)
	if w.observer != nil {
		w.observer.OnIterationFailure(w.name, err, true)
	}
}

func (w *Worker) runCleanup() {
	if w.cleanup == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("cleanup panicked", "panic", r)
		}
	}()
	w.cleanup()
}

func (w *Worker) beat() {
	w.lastBeat.Store(time.Now().UnixNano())
}
