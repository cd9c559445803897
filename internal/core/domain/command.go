// Package domain defines the core domain models for SimSync.
package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// CommandType enumerates the inbound control messages.
type CommandType string

const (
	// CommandSetSpeed sets the motor speed (rad/s) of a model.
	CommandSetSpeed CommandType = "set_speed"
	// CommandPause freezes the simulation clock.
	CommandPause CommandType = "pause"
	// CommandResume unfreezes the simulation clock.
	CommandResume CommandType = "resume"
	// CommandReset restores the initial scene state.
	CommandReset CommandType = "reset"
)

// Command is an inbound control message from a client.
type Command struct {
	Type  CommandType `json:"type"`
	Model string      `json:"model,omitempty"`
	Value float64     `json:"value,omitempty"`

	// Source identifies the submitting client (not serialized).
	Source string `json:"-"`
}

// Validate checks the command shape. It does not check that the model exists.
func (c Command) Validate() error {
	switch c.Type {
	case CommandSetSpeed:
		if strings.TrimSpace(c.Model) == "" {
			return ErrInvalidCommand.WithDetails("set_speed requires a model")
		}
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			return ErrInvalidCommand.WithDetails("set_speed requires a finite value")
		}
		return nil
	case CommandPause, CommandResume, CommandReset:
		return nil
	case "":
		return ErrInvalidCommand.WithDetails("missing type")
	default:
		return ErrInvalidCommand.WithDetails("unknown type " + string(c.Type))
	}
}

// ParseCommand decodes and validates a JSON command such as
// {"type":"set_speed","model":"gear_A","value":2.5}.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cmd); err != nil {
		return Command{}, ErrBadRequest.WithDetails("malformed command").WithCause(err)
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
