package snapbuf

import (
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

type sessionState int

const (
	sessionOpen sessionState = iota
	sessionCommitted
	sessionAbandoned
)

// WriteSession is the exclusive right to build the next snapshot.
//
// A session is owned by the goroutine that opened it and is not safe for
// concurrent use. It ends with exactly one Commit or Abandon; Close
// abandons an uncommitted session and is safe to defer.
type WriteSession struct {
	buf       *Buffer
	workspace domain.Snapshot
	baseSeq   uint64
	openedAt  time.Time
	state     sessionState
	seq       uint64
}

// Workspace returns the private workspace for in-place mutation.
// It returns nil once the session has ended.
func (s *WriteSession) Workspace() domain.Snapshot {
	if s.state != sessionOpen {
		return nil
	}
	return s.workspace
}

// BaseSeq returns the sequence number of the commit the workspace was
// copied from.
func (s *WriteSession) BaseSeq() uint64 {
	return s.baseSeq
}

// Set stores the state of one model in the workspace.
func (s *WriteSession) Set(name string, state domain.ModelState) error {
	if s.state != sessionOpen {
		return domain.ErrSessionClosed
	}
	s.workspace[name] = state.Clone()
	return nil
}

// Delete removes one model from the workspace.
func (s *WriteSession) Delete(name string) error {
	if s.state != sessionOpen {
		return domain.ErrSessionClosed
	}
	delete(s.workspace, name)
	return nil
}

// Replace swaps the whole workspace for a deep copy of snap.
func (s *WriteSession) Replace(snap domain.Snapshot) error {
	if s.state != sessionOpen {
		return domain.ErrSessionClosed
	}
	s.workspace = snap.Clone()
	return nil
}

// Commit atomically publishes the workspace and ends the session.
// It returns the sequence number of the new commit.
func (s *WriteSession) Commit() (uint64, error) {
	if s.state != sessionOpen {
		return 0, domain.ErrSessionClosed
	}

	ws := s.workspace
	s.workspace = nil
	s.state = sessionCommitted
	s.seq = s.buf.publish(ws, time.Since(s.openedAt))
	s.buf.release()
	return s.seq, nil
}

// Abandon discards the workspace and ends the session, leaving the
// committed snapshot untouched. It is a no-op on an ended session.
func (s *WriteSession) Abandon() {
	if s.state != sessionOpen {
		return
	}

	s.workspace = nil
	s.state = sessionAbandoned
	s.buf.abandoned(time.Since(s.openedAt))
	s.buf.release()
}

// Close abandons the session unless it was committed.
func (s *WriteSession) Close() {
	s.Abandon()
}

// Committed reports whether the session ended with a commit.
func (s *WriteSession) Committed() bool {
	return s.state == sessionCommitted
}
