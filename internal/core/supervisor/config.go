package supervisor

import (
	"fmt"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/worker"
)

// Default supervisor timings.
const (
	DefaultPollInterval   = time.Second
	DefaultJoinTimeout    = 3 * time.Second
	DefaultRestartBackoff = 5 * time.Second
)

// Config holds supervisor timings. It is fixed for the supervisor lifetime.
type Config struct {
	// PollInterval is the time between liveness checks.
	PollInterval time.Duration
	// JoinTimeout is the default time to wait for each worker at shutdown.
	JoinTimeout time.Duration
	// RestartBackoff delays a slot after a factory failure or repeated
	// rapid crashes.
	RestartBackoff time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:   DefaultPollInterval,
		JoinTimeout:    DefaultJoinTimeout,
		RestartBackoff: DefaultRestartBackoff,
	}
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.RestartBackoff < 0 {
		c.RestartBackoff = 0
	}
	return c
}

// Factory builds a fresh, unstarted worker.
type Factory func() (*worker.Worker, error)

// SlotSpec describes one supervised role.
type SlotSpec struct {
	Name    string
	Factory Factory
	// JoinTimeout overrides Config.JoinTimeout for this slot when positive.
	JoinTimeout time.Duration
}

func validateSpecs(specs []SlotSpec) error {
	if len(specs) == 0 {
		return domain.ErrInvalidSlot.WithDetails("no slots")
	}
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return domain.ErrInvalidSlot.WithDetails("empty slot name")
		}
		if spec.Factory == nil {
			return domain.ErrInvalidSlot.WithDetails(fmt.Sprintf("slot %q has no factory", spec.Name))
		}
		if _, dup := seen[spec.Name]; dup {
			return domain.ErrInvalidSlot.WithDetails(fmt.Sprintf("duplicate slot %q", spec.Name))
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}
