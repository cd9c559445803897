package snapbuf

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// Observer receives buffer events, typically to feed metrics.
type Observer interface {
	OnCommit(seq uint64, models int, held time.Duration)
	OnAbandon()
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(b *Buffer) {
		b.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Buffer) {
		if l != nil {
			b.logger = l
		}
	}
}

// version is one committed snapshot. Its snap is never mutated after it is
// stored; changed is closed once a newer version replaces it.
type version struct {
	seq     uint64
	snap    domain.Snapshot
	at      time.Time
	changed chan struct{}
}

// Buffer is the snapshot exchange buffer.
type Buffer struct {
	// owner holds a token while a write session is open.
	owner chan struct{}

	current atomic.Pointer[version]

	commits  atomic.Uint64
	abandons atomic.Uint64

	observer Observer
	logger   *slog.Logger
}

// Stats is a point-in-time view of buffer activity.
type Stats struct {
	Seq          uint64    `json:"seq"`
	Models       int       `json:"models"`
	Commits      uint64    `json:"commits"`
	Abandons     uint64    `json:"abandons"`
	LastCommit   time.Time `json:"last_commit"`
	WriterActive bool      `json:"writer_active"`
}

// New creates a buffer whose committed snapshot is a deep copy of initial.
// A nil initial snapshot starts the buffer empty.
func New(initial domain.Snapshot, opts ...Option) *Buffer {
	b := &Buffer{
		owner:  make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.current.Store(&version{
		seq:     0,
		snap:    initial.Clone(),
		at:      time.Now(),
		changed: make(chan struct{}),
	})
	return b
}

// BeginWrite opens the write session, blocking until no other session is
// open or ctx is done. The session workspace starts as a deep copy of the
// committed snapshot.
func (b *Buffer) BeginWrite(ctx context.Context) (*WriteSession, error) {
	select {
	case b.owner <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	base := b.current.Load()
	return &WriteSession{
		buf:       b,
		workspace: base.snap.Clone(),
		baseSeq:   base.seq,
		openedAt:  time.Now(),
	}, nil
}

// Update runs fn inside a write session and commits only if fn returns nil.
// An error or panic from fn abandons the workspace and is reported as
// ErrWriteSessionAbandoned wrapping the cause. If fn already committed, the
// commit stands and its sequence number is returned with fn's error as is.
func (b *Buffer) Update(ctx context.Context, fn func(ws *WriteSession) error) (seq uint64, err error) {
	sess, err := b.BeginWrite(ctx)
	if err != nil {
		return 0, err
	}

	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("panic: %v", r)
			if sess.state == sessionCommitted {
				seq, err = sess.seq, cause
				return
			}
			sess.Abandon()
			seq = 0
			err = domain.ErrWriteSessionAbandoned.WithCause(cause)
		}
	}()

	if err := fn(sess); err != nil {
		if sess.state == sessionCommitted {
			return sess.seq, err
		}
		sess.Abandon()
		return 0, domain.ErrWriteSessionAbandoned.WithCause(err)
	}

	switch sess.state {
	case sessionCommitted:
		return sess.seq, nil
	case sessionAbandoned:
		return 0, domain.ErrWriteSessionAbandoned.WithDetails("abandoned by update function")
	}
	return sess.Commit()
}

// Read returns a deep copy of the latest committed snapshot.
// It never waits for an open write session.
func (b *Buffer) Read() domain.Snapshot {
	return b.current.Load().snap.Clone()
}

// ReadVersion returns a deep copy of the latest committed snapshot and its
// sequence number.
func (b *Buffer) ReadVersion() (domain.Snapshot, uint64) {
	v := b.current.Load()
	return v.snap.Clone(), v.seq
}

// Seq returns the sequence number of the latest commit.
func (b *Buffer) Seq() uint64 {
	return b.current.Load().seq
}

// Wait blocks until a commit newer than afterSeq exists or ctx is done.
// It returns the latest sequence number observed.
func (b *Buffer) Wait(ctx context.Context, afterSeq uint64) (uint64, error) {
	for {
		v := b.current.Load()
		if v.seq > afterSeq {
			return v.seq, nil
		}
		select {
		case <-v.changed:
		case <-ctx.Done():
			return v.seq, ctx.Err()
		}
	}
}

// Stats returns current buffer statistics.
func (b *Buffer) Stats() Stats {
	v := b.current.Load()
	return Stats{
		Seq:          v.seq,
		Models:       len(v.snap),
		Commits:      b.commits.Load(),
		Abandons:     b.abandons.Load(),
		LastCommit:   v.at,
		WriterActive: len(b.owner) > 0,
	}
}

// publish installs ws as the committed snapshot. Callers must hold the
// write session token.
func (b *Buffer) publish(ws domain.Snapshot, held time.Duration) uint64 {
	old := b.current.Load()
	next := &version{
		seq:     old.seq + 1,
		snap:    ws,
		at:      time.Now(),
		changed: make(chan struct{}),
	}
	b.current.Store(next)
	close(old.changed)

	b.commits.Add(1)
	if b.observer != nil {
		b.observer.OnCommit(next.seq, len(ws), held)
	}
	return next.seq
}

func (b *Buffer) abandoned(held time.Duration) {
	b.abandons.Add(1)
	if b.observer != nil {
		b.observer.OnAbandon()
	}
	b.logger.Debug("write session abandoned", "held", held)
}

func (b *Buffer) release() {
	<-b.owner
}
