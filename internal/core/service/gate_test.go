package service

import (
	"errors"
	"testing"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/sim"
)

func TestCommandGate(t *testing.T) {
	buf := snapbuf.New(domain.Snapshot{"gear_A": domain.NewModelState(domain.Vector3{})})
	inbox := sim.NewInbox(4)
	gate := NewCommandGate(buf, inbox)

	tests := []struct {
		name    string
		cmd     domain.Command
		wantErr error
	}{
		{"known model", domain.Command{Type: domain.CommandSetSpeed, Model: "gear_A", Value: 1}, nil},
		{"unknown model", domain.Command{Type: domain.CommandSetSpeed, Model: "ghost", Value: 1}, domain.ErrModelNotFound},
		{"invalid", domain.Command{Type: "explode"}, domain.ErrInvalidCommand},
		{"pause", domain.Command{Type: domain.CommandPause}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Submit(tt.cmd)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Submit() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := inbox.Len(); got != 2 {
		t.Errorf("inbox holds %d commands, want 2", got)
	}
}
