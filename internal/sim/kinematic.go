package sim

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// Extra field names written by the stepper.
const (
	extraAngle = "angle"
	extraSpeed = "speed"
	extraMesh  = "mesh"
	extraFixed = "fixed"
)

// Input is what the stepper consumes besides the previous state.
type Input struct {
	DT       time.Duration
	Commands []domain.Command
}

// Stepper computes the next world state.
type Stepper interface {
	// Step returns the state that follows prev after in.DT with in.Commands
	// applied. It must not mutate prev.
	Step(prev domain.Snapshot, in Input) (domain.Snapshot, error)
}

// Kinematic is a Stepper that integrates rotation and linear drift without
// forces or collisions.
//
// Motor speeds live in the snapshot ("speed" extra field), so a fresh
// Kinematic continues from any published snapshot. Only the paused flag is
// held by the stepper itself.
type Kinematic struct {
	scene   *Scene
	byName  map[string]ModelSpec
	gears   map[string]GearSpec
	logger  *slog.Logger
	initial domain.Snapshot

	mu     sync.Mutex
	paused bool
}

// KinematicOption configures a Kinematic stepper.
type KinematicOption func(*Kinematic)

// WithStepLogger sets the logger used for rejected commands.
func WithStepLogger(l *slog.Logger) KinematicOption {
	return func(k *Kinematic) {
		if l != nil {
			k.logger = l
		}
	}
}

// NewKinematic validates scene and returns a stepper for it.
func NewKinematic(scene *Scene, opts ...KinematicOption) (*Kinematic, error) {
	if scene == nil {
		return nil, domain.ErrInvalidScene.WithDetails("nil scene")
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}

	k := &Kinematic{
		scene:  scene,
		byName: make(map[string]ModelSpec, len(scene.Models)),
		gears:  make(map[string]GearSpec, len(scene.Gears)),
		logger: slog.Default(),
	}
	for _, m := range scene.Models {
		k.byName[m.Name] = m
	}
	for _, g := range scene.Gears {
		k.gears[g.Driven] = g
	}
	for _, opt := range opts {
		opt(k)
	}
	k.initial = scene.Initial()
	return k, nil
}

// Paused reports whether the simulation clock is frozen.
func (k *Kinematic) Paused() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.paused
}

// Step implements Stepper. Rejected commands are logged and skipped.
func (k *Kinematic) Step(prev domain.Snapshot, in Input) (domain.Snapshot, error) {
	next := prev.Clone()

	for _, cmd := range in.Commands {
		var err error
		next, err = k.apply(next, cmd)
		if err != nil {
			k.logger.Warn("command rejected",
				"type", cmd.Type,
				"model", cmd.Model,
				"source", cmd.Source,
				"error", err)
		}
	}

	k.mu.Lock()
	paused := k.paused
	k.mu.Unlock()

	if paused || in.DT <= 0 {
		return next, nil
	}
	dt := in.DT.Seconds()

	motor := make(map[string]float64, len(k.byName))
	for name := range k.byName {
		if v, ok := extraFloat(next[name], extraSpeed); ok {
			motor[name] = v
		}
	}
	speeds := k.scene.effectiveSpeeds(motor)

	for _, m := range k.scene.Models {
		st, ok := next[m.Name]
		if !ok {
			st = k.initial[m.Name].Clone()
		}
		if st.Extra == nil {
			st.Extra = make(map[string]any, 2)
		}
		if m.Fixed {
			next[m.Name] = st
			continue
		}

		speed := speeds[m.Name]
		if speed != 0 {
			delta := speed * dt
			step := domain.QuaternionFromAxisAngle(m.Axis, delta)
			st.Rotation = step.Mul(st.Rotation).Normalize()

			angle, _ := extraFloat(st, extraAngle)
			st.Extra[extraAngle] = wrapAngle(angle + delta)
		}
		st.Extra[extraSpeed] = speed
		st.Position = st.Position.Add(m.Velocity.Scale(dt))

		next[m.Name] = st
	}

	return next, nil
}

// apply applies one command to snap and returns the result.
func (k *Kinematic) apply(snap domain.Snapshot, cmd domain.Command) (domain.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return snap, err
	}

	switch cmd.Type {
	case domain.CommandSetSpeed:
		m, ok := k.byName[cmd.Model]
		if !ok {
			return snap, domain.ErrModelNotFound.WithDetails(cmd.Model)
		}
		if m.Fixed {
			return snap, domain.ErrInvalidCommand.WithDetails("model " + cmd.Model + " is fixed")
		}
		if _, driven := k.gears[cmd.Model]; driven {
			return snap, domain.ErrInvalidCommand.WithDetails("model " + cmd.Model + " is gear-driven")
		}
		if m.Axis.Length() == 0 {
			return snap, domain.ErrInvalidCommand.WithDetails("model " + cmd.Model + " has no rotation axis")
		}

		st, ok := snap[cmd.Model]
		if !ok {
			st = k.initial[cmd.Model].Clone()
		}
		if st.Extra == nil {
			st.Extra = make(map[string]any, 1)
		}
		st.Extra[extraSpeed] = cmd.Value
		snap[cmd.Model] = st

	case domain.CommandPause:
		k.setPaused(true)

	case domain.CommandResume:
		k.setPaused(false)

	case domain.CommandReset:
		return k.initial.Clone(), nil

	default:
		return snap, errors.New("unhandled command " + string(cmd.Type))
	}
	return snap, nil
}

func (k *Kinematic) setPaused(v bool) {
	k.mu.Lock()
	k.paused = v
	k.mu.Unlock()
}

// extraFloat reads a numeric extra field.
func extraFloat(st domain.ModelState, key string) (float64, bool) {
	switch v := st.Extra[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// wrapAngle maps a to [0, 2π).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
