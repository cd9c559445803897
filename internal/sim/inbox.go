package sim

import (
	"sync"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// DefaultInboxSize is the default command queue capacity.
const DefaultInboxSize = 256

// InboxStats is a point-in-time view of an Inbox.
type InboxStats struct {
	Pending   int    `json:"pending"`
	Capacity  int    `json:"capacity"`
	Submitted uint64 `json:"submitted"`
	Drained   uint64 `json:"drained"`
	Dropped   uint64 `json:"dropped"`
}

// Inbox is a bounded FIFO of commands waiting for the next step.
// When full, the oldest pending command is dropped to make room.
type Inbox struct {
	mu       sync.Mutex
	pending  []domain.Command
	capacity int

	submitted uint64
	drained   uint64
	dropped   uint64
}

// NewInbox creates an inbox holding at most capacity commands.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxSize
	}
	return &Inbox{
		pending:  make([]domain.Command, 0, capacity),
		capacity: capacity,
	}
}

// Submit validates cmd and queues it.
func (b *Inbox) Submit(cmd domain.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) >= b.capacity {
		copy(b.pending, b.pending[1:])
		b.pending = b.pending[:len(b.pending)-1]
		b.dropped++
	}
	b.pending = append(b.pending, cmd)
	b.submitted++
	return nil
}

// Drain removes and returns all pending commands in submission order.
func (b *Inbox) Drain() []domain.Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	out := make([]domain.Command, len(b.pending))
	copy(out, b.pending)
	b.pending = b.pending[:0]
	b.drained += uint64(len(out))
	return out
}

// Len returns the number of pending commands.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stats returns inbox statistics.
func (b *Inbox) Stats() InboxStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return InboxStats{
		Pending:   len(b.pending),
		Capacity:  b.capacity,
		Submitted: b.submitted,
		Drained:   b.drained,
		Dropped:   b.dropped,
	}
}
