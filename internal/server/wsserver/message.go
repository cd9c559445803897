package wsserver

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// Message types.
const (
	TypeSnapshot = "snapshot"
	TypeError    = "error"
)

// SnapshotMessage carries one committed snapshot.
type SnapshotMessage struct {
	Type   string          `json:"type"`
	Seq    uint64          `json:"seq"`
	Models domain.Snapshot `json:"models"`
}

// ErrorMessage reports a rejected inbound message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the common header used to dispatch inbound frames.
type Envelope struct {
	Type string `json:"type"`
}

// EncodeSnapshot renders the snapshot frame.
func EncodeSnapshot(seq uint64, snap domain.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = domain.Snapshot{}
	}
	data, err := json.Marshal(SnapshotMessage{Type: TypeSnapshot, Seq: seq, Models: snap})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %d: %w", seq, err)
	}
	return data, nil
}

// EncodeError renders an error frame for err.
func EncodeError(err error) []byte {
	msg := ErrorMessage{Type: TypeError}
	var de *domain.DomainError
	if errors.As(err, &de) {
		msg.Code = de.Code
		msg.Message = de.Message
		if de.Details != "" {
			msg.Message += ": " + de.Details
		}
	} else {
		msg.Code = domain.ErrInternalServer.Code
		msg.Message = domain.ErrInternalServer.Message
	}
	data, _ := json.Marshal(msg)
	return data
}

// DecodeSnapshot parses a snapshot frame. Frames of another type yield
// an ErrorMessage-derived error.
func DecodeSnapshot(data []byte) (SnapshotMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return SnapshotMessage{}, fmt.Errorf("decode frame: %w", err)
	}
	switch env.Type {
	case TypeSnapshot:
		var msg SnapshotMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return SnapshotMessage{}, fmt.Errorf("decode snapshot: %w", err)
		}
		return msg, nil
	case TypeError:
		var msg ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return SnapshotMessage{}, fmt.Errorf("decode error frame: %w", err)
		}
		return SnapshotMessage{}, domain.NewDomainError(msg.Code, msg.Message)
	default:
		return SnapshotMessage{}, fmt.Errorf("unexpected frame type %q", env.Type)
	}
}
