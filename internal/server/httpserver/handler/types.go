package handler

import (
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
	"github.com/yndnr/simsync-go/internal/sim"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Time      string `json:"time"`
}

// ReadyResponse is the response body for GET /ready.
type ReadyResponse struct {
	Status string            `json:"status"`
	Slots  map[string]string `json:"slots"`
}

// ModelsResponse is the response body for GET /models.
type ModelsResponse struct {
	Seq    uint64          `json:"seq"`
	Count  int             `json:"count"`
	Models domain.Snapshot `json:"models"`
}

// ModelResponse is the response body for GET /models/{name}.
type ModelResponse struct {
	Name  string            `json:"name"`
	Seq   uint64            `json:"seq"`
	State domain.ModelState `json:"state"`
}

// CommandResponse is the response body for POST /commands.
type CommandResponse struct {
	Accepted bool               `json:"accepted"`
	Type     domain.CommandType `json:"type"`
	Model    string             `json:"model,omitempty"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Ready   bool                    `json:"ready"`
	Uptime  string                  `json:"uptime"`
	Slots   []supervisor.SlotStatus `json:"slots"`
	Buffer  *snapbuf.Stats          `json:"buffer,omitempty"`
	Inbox   *sim.InboxStats         `json:"inbox,omitempty"`
	Hub     *wsserver.Stats         `json:"hub,omitempty"`
	Clients []wsserver.ClientInfo   `json:"clients,omitempty"`
}
