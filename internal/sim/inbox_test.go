package sim

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

func TestInbox_FIFO(t *testing.T) {
	b := NewInbox(4)

	for i := 0; i < 3; i++ {
		if err := b.Submit(domain.Command{Type: domain.CommandSetSpeed, Model: "m", Value: float64(i)}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}

	got := b.Drain()
	if len(got) != 3 {
		t.Fatalf("Drain() = %d commands, want 3", len(got))
	}
	for i, cmd := range got {
		if cmd.Value != float64(i) {
			t.Errorf("Drain()[%d].Value = %v, want %d", i, cmd.Value, i)
		}
	}
	if b.Drain() != nil {
		t.Error("second Drain() should be empty")
	}
}

func TestInbox_DropOldest(t *testing.T) {
	b := NewInbox(2)

	for i := 0; i < 5; i++ {
		b.Submit(domain.Command{Type: domain.CommandSetSpeed, Model: "m", Value: float64(i)})
	}

	got := b.Drain()
	if len(got) != 2 || got[0].Value != 3 || got[1].Value != 4 {
		t.Errorf("Drain() = %+v, want values 3 and 4", got)
	}

	stats := b.Stats()
	if stats.Submitted != 5 || stats.Dropped != 3 || stats.Drained != 2 || stats.Capacity != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestInbox_RejectsInvalid(t *testing.T) {
	b := NewInbox(0)
	if b.Stats().Capacity != DefaultInboxSize {
		t.Errorf("Capacity = %d, want %d", b.Stats().Capacity, DefaultInboxSize)
	}

	err := b.Submit(domain.Command{Type: "explode"})
	if !errors.Is(err, domain.ErrInvalidCommand) {
		t.Errorf("Submit() error = %v, want ErrInvalidCommand", err)
	}
	if b.Len() != 0 {
		t.Error("invalid command was queued")
	}
}

func TestInbox_Concurrent(t *testing.T) {
	b := NewInbox(1000)
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Submit(domain.Command{Type: domain.CommandSetSpeed, Model: fmt.Sprintf("m%d", w), Value: float64(i)})
			}
		}(w)
	}

	drained := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		drained += len(b.Drain())
		select {
		case <-done:
			drained += len(b.Drain())
			if drained != 400 {
				t.Errorf("drained %d commands, want 400", drained)
			}
			return
		default:
		}
	}
}
