package service

import (
	"github.com/yndnr/simsync-go/internal/core/domain"
)

// CommandGate rejects commands that cannot apply to the current snapshot
// before they reach the producer's inbox.
type CommandGate struct {
	src  SnapshotSource
	sink CommandSink
}

// NewCommandGate wraps sink with a model existence check against src.
func NewCommandGate(src SnapshotSource, sink CommandSink) *CommandGate {
	return &CommandGate{src: src, sink: sink}
}

// Submit validates cmd and forwards it.
func (g *CommandGate) Submit(cmd domain.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if cmd.Type == domain.CommandSetSpeed {
		snap, _ := g.src.ReadVersion()
		if _, err := snap.Get(cmd.Model); err != nil {
			return err
		}
	}
	return g.sink.Submit(cmd)
}
