package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/worker"
)

// State is the lifecycle state of a slot.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCrashed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateNotStarted, StateRunning, StateCrashed, StateStopped} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown slot state %q", text)
}

// Observer receives supervisor events, typically to feed metrics.
type Observer interface {
	OnWorkerStart(slot string, restart bool)
	OnStartFailure(slot string, err error)
	OnJoinTimeout(slot string)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(s *Supervisor) {
		s.observer = o
	}
}

// SlotStatus is a point-in-time view of one slot.
type SlotStatus struct {
	Name        string    `json:"name"`
	State       State     `json:"state"`
	Alive       bool      `json:"alive"`
	Restarts    int       `json:"restarts"`
	Iterations  uint64    `json:"iterations"`
	Failures    uint64    `json:"failures"`
	LastAlive   time.Time `json:"last_alive"`
	LastError   string    `json:"last_error,omitempty"`
	NextAttempt time.Time `json:"next_attempt"`
}

// slot holds the supervision state of one role. Guarded by Supervisor.mu.
type slot struct {
	spec SlotSpec

	worker    *worker.Worker
	state     State
	started   bool
	startedAt time.Time
	lastAlive time.Time

	restarts      int
	rapidFailures int
	lastErr       error
	nextAttempt   time.Time
}

// Supervisor starts, restarts and stops a fixed set of workers.
type Supervisor struct {
	cfg      Config
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	slots   []*slot
	started bool
	stopped bool

	stopCh chan struct{}
	doneCh chan struct{}

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a supervisor. Zero PollInterval and JoinTimeout take their
// defaults; a zero RestartBackoff disables backoff.
func New(cfg Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Supervisor) Config() Config {
	return s.cfg
}

// Start registers the slots and launches the poll loop, which starts every
// worker immediately. Slot names must be unique and non-empty.
func (s *Supervisor) Start(specs ...SlotSpec) error {
	if err := validateSpecs(specs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return domain.ErrSupervisorStopped
	}
	if s.started {
		return domain.ErrSupervisorStarted
	}

	s.slots = make([]*slot, 0, len(specs))
	for _, spec := range specs {
		s.slots = append(s.slots, &slot{spec: spec, state: StateNotStarted})
	}
	s.started = true

	s.logger.Info("supervisor starting",
		"slots", len(specs),
		"poll_interval", s.cfg.PollInterval,
		"restart_backoff", s.cfg.RestartBackoff)

	go s.loop()
	return nil
}

func (s *Supervisor) loop() {
	defer close(s.doneCh)

	s.poll()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.poll()
		case <-s.stopCh:
			return
		}
	}
}

// poll checks every slot once and (re)starts dead workers that are due.
// Factories run without holding mu, so Shutdown never waits on one.
func (s *Supervisor) poll() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}

	now := time.Now()
	var due []*slot
	for _, sl := range s.slots {
		if sl.worker != nil {
			if sl.worker.Alive() {
				sl.lastAlive = now
				continue
			}
			if sl.state == StateRunning {
				s.crashed(sl, now)
			}
		}

		if now.Before(sl.nextAttempt) {
			continue
		}
		due = append(due, sl)
	}
	s.mu.Unlock()

	for _, sl := range due {
		w, err := build(sl.spec.Factory)

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			if err == nil {
				s.logger.Debug("discarding worker built during shutdown", "slot", sl.spec.Name)
			}
			return
		}
		s.launch(sl, w, err, time.Now())
		s.mu.Unlock()
	}
}

// crashed records the death of a running worker.
func (s *Supervisor) crashed(sl *slot, now time.Time) {
	died := sl.worker.LastBeat()
	if died.IsZero() || died.After(now) {
		died = now
	}
	lived := died.Sub(sl.startedAt)

	sl.state = StateCrashed
	sl.lastErr = sl.worker.Err()
	if sl.lastErr == nil {
		sl.lastErr = errors.New("worker exited")
	}

	if lived < s.cfg.RestartBackoff {
		sl.rapidFailures++
	} else {
		sl.rapidFailures = 0
	}

	log := s.logger.With("slot", sl.spec.Name)
	log.Warn("worker died",
		"error", sl.lastErr,
		"lived", lived,
		"rapid_failures", sl.rapidFailures)

	if sl.rapidFailures >= 2 {
		sl.nextAttempt = now.Add(s.cfg.RestartBackoff)
		log.Warn("worker crashing repeatedly, backing off",
			"backoff", s.cfg.RestartBackoff)
	}
}

// launch starts a freshly built worker for the slot, or records the
// factory failure. Callers must hold mu.
func (s *Supervisor) launch(sl *slot, w *worker.Worker, err error, now time.Time) {
	log := s.logger.With("slot", sl.spec.Name)
	restart := sl.started

	if err != nil {
		sl.lastErr = err
		sl.nextAttempt = now.Add(s.cfg.RestartBackoff)
		log.Error("worker factory failed",
			"error", err,
			"restart", restart,
			"retry_in", s.cfg.RestartBackoff)
		if s.observer != nil {
			s.observer.OnStartFailure(sl.spec.Name, err)
		}
		return
	}

	w.Start()

	sl.worker = w
	sl.state = StateRunning
	sl.startedAt = now
	sl.lastAlive = now
	sl.nextAttempt = time.Time{}
	if restart {
		sl.restarts++
		log.Warn("worker restarted", "restarts", sl.restarts)
	} else {
		sl.started = true
		log.Info("worker started")
	}

	if s.observer != nil {
		s.observer.OnWorkerStart(sl.spec.Name, restart)
	}
}

// build calls the factory, treating a panic or nil worker as a failure.
func build(factory Factory) (w *worker.Worker, err error) {
	defer func() {
		if r := recover(); r != nil {
			w = nil
			err = fmt.Errorf("factory panic: %v", r)
		}
	}()

	w, err = factory()
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.New("factory returned nil worker")
	}
	return w, nil
}

// Shutdown stops the poll loop, stops every worker and waits for each one
// for at most the smaller of its join timeout and the time left in ctx.
// Workers that do not exit in time are logged and reported in the returned
// error; Shutdown still waits on every slot. Calling Shutdown again returns
// the first result.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Supervisor) shutdown(ctx context.Context) error {
	// No worker is launched once stopped is set, so the slots copied here
	// hold every worker that will ever run.
	s.mu.Lock()
	s.stopped = true
	started := s.started
	close(s.stopCh)
	slots := make([]*slot, len(s.slots))
	copy(slots, s.slots)
	s.mu.Unlock()

	if !started {
		return nil
	}

	s.logger.Info("supervisor shutting down")
	for _, sl := range slots {
		if sl.worker != nil {
			sl.worker.Stop()
		}
	}

	select {
	case <-s.doneCh:
	case <-ctx.Done():
		s.logger.Warn("poll loop still running a worker factory at shutdown deadline")
	}

	var errs []error
	for _, sl := range slots {
		if sl.worker == nil {
			s.setState(sl, StateStopped)
			continue
		}

		timeout := sl.spec.JoinTimeout
		if timeout <= 0 {
			timeout = s.cfg.JoinTimeout
		}
		expired := false
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); left < timeout {
				timeout = max(left, 0)
				expired = timeout == 0
			}
		}

		joined := sl.worker.Join(timeout)
		s.setState(sl, StateStopped)
		if joined {
			continue
		}

		details := fmt.Sprintf("slot %q did not stop within %v", sl.spec.Name, timeout)
		if expired {
			details = fmt.Sprintf("slot %q still running at the shutdown deadline", sl.spec.Name)
		}
		err := domain.ErrShutdownJoinTimeout.WithDetails(details)
		s.logger.Warn("worker did not stop in time",
			"slot", sl.spec.Name,
			"timeout", timeout)
		if s.observer != nil {
			s.observer.OnJoinTimeout(sl.spec.Name)
		}
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info("supervisor stopped")
	return nil
}

func (s *Supervisor) setState(sl *slot, state State) {
	s.mu.Lock()
	sl.state = state
	s.mu.Unlock()
}

// Status returns the status of every slot in registration order.
func (s *Supervisor) Status() []SlotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SlotStatus, 0, len(s.slots))
	for _, sl := range s.slots {
		st := SlotStatus{
			Name:        sl.spec.Name,
			State:       sl.state,
			Restarts:    sl.restarts,
			LastAlive:   sl.lastAlive,
			NextAttempt: sl.nextAttempt,
		}
		if sl.lastErr != nil {
			st.LastError = sl.lastErr.Error()
		}
		if sl.worker != nil {
			ws := sl.worker.Stats()
			st.Alive = ws.Alive
			st.Iterations = ws.Iterations
			st.Failures = ws.Failures
			if ws.Alive && ws.LastBeat.After(st.LastAlive) {
				st.LastAlive = ws.LastBeat
			}
		}
		out = append(out, st)
	}
	return out
}

// Ready reports whether every slot has a running, live worker.
func (s *Supervisor) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped || len(s.slots) == 0 {
		return false
	}
	for _, sl := range s.slots {
		if sl.state != StateRunning || sl.worker == nil || !sl.worker.Alive() {
			return false
		}
	}
	return true
}
