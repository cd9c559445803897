package service

import (
	"context"
	"errors"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// ErrTransportClosed is returned by a Publisher that will never accept
// another snapshot. The broadcaster treats it as fatal.
var ErrTransportClosed = errors.New("service: transport closed")

// Publisher delivers a committed snapshot to consumers.
type Publisher interface {
	// Publish hands over snap, committed as seq. snap is owned by the
	// publisher after the call.
	Publish(ctx context.Context, seq uint64, snap domain.Snapshot) error
}

// CommandSink accepts inbound commands for the producer.
type CommandSink interface {
	Submit(cmd domain.Command) error
}

// CommandSource hands pending commands to the producer.
type CommandSource interface {
	Drain() []domain.Command
}

// SnapshotSource exposes the latest committed snapshot.
type SnapshotSource interface {
	ReadVersion() (domain.Snapshot, uint64)
}
