package service

import (
	"context"
	"testing"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/sim"
)

func TestNewPipeline_Validation(t *testing.T) {
	buf := newBuffer()
	pub := &fakePublisher{}

	if _, err := NewPipeline(nil, sim.DefaultScene(), nil, pub, PipelineConfig{}); err == nil {
		t.Error("NewPipeline() without buffer should fail")
	}
	if _, err := NewPipeline(buf, nil, nil, pub, PipelineConfig{}); err == nil {
		t.Error("NewPipeline() without scene should fail")
	}
	if _, err := NewPipeline(buf, &sim.Scene{}, nil, pub, PipelineConfig{}); err == nil {
		t.Error("NewPipeline() with invalid scene should fail")
	}

	p, err := NewPipeline(buf, sim.DefaultScene(), nil, pub, PipelineConfig{})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if got := p.TickInterval(); got != time.Second/60 {
		t.Errorf("TickInterval() = %v, want %v", got, time.Second/60)
	}

	slots := p.Slots()
	if len(slots) != 2 || slots[0].Name != SlotProducer || slots[1].Name != SlotBroadcaster {
		t.Errorf("Slots() = %+v", slots)
	}
}

func TestPipeline_FreshWorkers(t *testing.T) {
	p, err := NewPipeline(newBuffer(), sim.DefaultScene(), nil, &fakePublisher{}, PipelineConfig{})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	a, err := p.NewProducer()
	if err != nil {
		t.Fatalf("NewProducer() error = %v", err)
	}
	b, err := p.NewProducer()
	if err != nil {
		t.Fatalf("NewProducer() error = %v", err)
	}
	if a == b {
		t.Error("NewProducer() returned the same worker twice")
	}
	if a.Name() != SlotProducer {
		t.Errorf("Name() = %q, want %q", a.Name(), SlotProducer)
	}
}

// TestPipeline_EndToEnd runs both slots under a supervisor and checks that
// the broadcaster sees increasing, fully formed snapshots.
func TestPipeline_EndToEnd(t *testing.T) {
	scene := sim.DefaultScene()
	buf := snapbuf.New(scene.Initial())
	inbox := sim.NewInbox(16)
	pub := &fakePublisher{}

	p, err := NewPipeline(buf, scene, inbox, pub, PipelineConfig{
		TickRate:          200,
		BroadcastInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	sup := supervisor.New(supervisor.Config{PollInterval: 10 * time.Millisecond})
	if err := sup.Start(p.Slots()...); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := inbox.Submit(domain.Command{Type: domain.CommandSetSpeed, Model: "gear_A", Value: 6}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(pub.Seqs()) < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()

	if len(pub.calls) < 10 {
		t.Fatalf("published %d snapshots, want at least 10", len(pub.calls))
	}
	var last uint64
	for i, c := range pub.calls {
		if i > 0 && c.seq <= last {
			t.Errorf("publish %d seq %d not after %d", i, c.seq, last)
		}
		last = c.seq
		if len(c.snap) != len(scene.Models) {
			t.Errorf("publish %d has %d models, want %d", i, len(c.snap), len(scene.Models))
		}
	}

	final := pub.calls[len(pub.calls)-1].snap
	if speed := final["gear_A"].Extra["speed"]; speed != 6.0 {
		t.Errorf("gear_A speed = %v, want 6", speed)
	}
	if final["model_1"].Position.X <= 0 {
		t.Error("model_1 did not drift")
	}
}
