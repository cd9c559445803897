package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/core/worker"
	"github.com/yndnr/simsync-go/internal/sim"
)

// Slot names.
const (
	SlotProducer    = "producer"
	SlotBroadcaster = "broadcaster"
)

// Default pipeline settings.
const (
	DefaultTickRate          = 60
	DefaultBroadcastInterval = 16 * time.Millisecond
)

// PipelineConfig configures the producer and broadcaster workers.
type PipelineConfig struct {
	// TickRate is the producer frequency in Hz.
	TickRate int
	// MaxStep clamps the producer time step.
	MaxStep time.Duration
	// BroadcastInterval is the minimum spacing between broadcasts.
	BroadcastInterval time.Duration
	// MaxConsecutiveFailures escalates repeated transient failures to a
	// worker exit. Zero disables it.
	MaxConsecutiveFailures int
	// JoinTimeout overrides the supervisor join timeout for both slots.
	JoinTimeout time.Duration

	Logger   *slog.Logger
	Observer worker.Observer
}

// Pipeline builds the supervised producer and broadcaster.
type Pipeline struct {
	buf      *snapbuf.Buffer
	scene    *sim.Scene
	commands CommandSource
	pub      Publisher
	cfg      PipelineConfig
}

// NewPipeline validates scene and returns a pipeline over buf.
func NewPipeline(buf *snapbuf.Buffer, scene *sim.Scene, commands CommandSource, pub Publisher, cfg PipelineConfig) (*Pipeline, error) {
	if buf == nil || pub == nil || scene == nil {
		return nil, fmt.Errorf("service: pipeline needs a buffer, a scene and a publisher")
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = DefaultMaxStep
	}
	if cfg.BroadcastInterval < 0 {
		cfg.BroadcastInterval = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Pipeline{
		buf:      buf,
		scene:    scene,
		commands: commands,
		pub:      pub,
		cfg:      cfg,
	}, nil
}

// TickInterval returns the producer pacing interval.
func (p *Pipeline) TickInterval() time.Duration {
	return time.Second / time.Duration(p.cfg.TickRate)
}

// Slots returns the supervisor slots for the producer and broadcaster.
func (p *Pipeline) Slots() []supervisor.SlotSpec {
	return []supervisor.SlotSpec{
		{Name: SlotProducer, Factory: p.NewProducer, JoinTimeout: p.cfg.JoinTimeout},
		{Name: SlotBroadcaster, Factory: p.NewBroadcaster, JoinTimeout: p.cfg.JoinTimeout},
	}
}

// NewProducer builds a fresh producer worker with its own stepper.
func (p *Pipeline) NewProducer() (*worker.Worker, error) {
	logger := p.cfg.Logger.With("slot", SlotProducer)

	stepper, err := sim.NewKinematic(p.scene, sim.WithStepLogger(logger))
	if err != nil {
		return nil, err
	}

	tick := ProducerTick(p.buf, stepper, p.commands, ProducerConfig{
		MaxStep: p.cfg.MaxStep,
		Logger:  logger,
	})
	return worker.New(SlotProducer, tick, p.workerOptions(logger, p.TickInterval())...), nil
}

// NewBroadcaster builds a fresh broadcaster worker.
func (p *Pipeline) NewBroadcaster() (*worker.Worker, error) {
	logger := p.cfg.Logger.With("slot", SlotBroadcaster)

	tick := BroadcastTick(p.buf, p.pub, BroadcastConfig{Logger: logger})
	return worker.New(SlotBroadcaster, tick, p.workerOptions(logger, p.cfg.BroadcastInterval)...), nil
}

func (p *Pipeline) workerOptions(logger *slog.Logger, interval time.Duration) []worker.Option {
	opts := []worker.Option{
		worker.WithLogger(logger),
		worker.WithInterval(interval),
		worker.WithMaxConsecutiveFailures(p.cfg.MaxConsecutiveFailures),
	}
	if p.cfg.Observer != nil {
		opts = append(opts, worker.WithObserver(p.cfg.Observer))
	}
	return opts
}
