package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
	"github.com/yndnr/simsync-go/internal/sim"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeSink struct {
	mu   sync.Mutex
	cmds []domain.Command
	err  error
}

func (s *fakeSink) Submit(cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *fakeSink) submitted() []domain.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Command(nil), s.cmds...)
}

type fakeSlots struct {
	ready  bool
	status []supervisor.SlotStatus
}

func (f *fakeSlots) Status() []supervisor.SlotStatus { return f.status }
func (f *fakeSlots) Ready() bool                     { return f.ready }

type fakeInbox struct{ stats sim.InboxStats }

func (f *fakeInbox) Stats() sim.InboxStats { return f.stats }

type fakeHub struct {
	stats   wsserver.Stats
	clients []wsserver.ClientInfo
}

func (f *fakeHub) Stats() wsserver.Stats            { return f.stats }
func (f *fakeHub) Clients() []wsserver.ClientInfo { return f.clients }

// envelope mirrors Response with the data left raw.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Details   json.RawMessage `json:"details"`
}

func testScene() domain.Snapshot {
	return domain.Snapshot{
		"gear_A": domain.NewModelState(domain.Vector3{X: 1}),
		"gear_B": domain.NewModelState(domain.Vector3{X: -1}),
	}
}

func newTestHandler(t *testing.T, mutate func(*Config)) (*Handler, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	cfg := Config{
		Buffer:   snapbuf.New(testScene()),
		Commands: sink,
		Supervisor: &fakeSlots{
			ready: true,
			status: []supervisor.SlotStatus{
				{Name: "producer", State: supervisor.StateRunning, Alive: true},
				{Name: "broadcaster", State: supervisor.StateRunning, Alive: true},
			},
		},
		Inbox: &fakeInbox{stats: sim.InboxStats{Pending: 2, Capacity: 256}},
		Hub:   &fakeHub{stats: wsserver.Stats{Clients: 1}, clients: []wsserver.ClientInfo{{ID: "c1"}}},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg), sink
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Request-ID", "req-test")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

// ============================================================================
// Health
// ============================================================================

func TestHandler_Health(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, env := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Code != "OK" || env.RequestID != "req-test" {
		t.Errorf("envelope = %+v", env)
	}

	var data HealthResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Status != "healthy" || data.GoVersion == "" {
		t.Errorf("data = %+v", data)
	}
}

func TestHandler_Ready(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		h, _ := newTestHandler(t, nil)
		rec, env := do(t, h, http.MethodGet, "/ready", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var data ReadyResponse
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatal(err)
		}
		if data.Status != "ready" || data.Slots["producer"] != "running" {
			t.Errorf("data = %+v", data)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		h, _ := newTestHandler(t, func(c *Config) {
			c.Supervisor = &fakeSlots{status: []supervisor.SlotStatus{
				{Name: "producer", State: supervisor.StateCrashed},
			}}
		})
		rec, env := do(t, h, http.MethodGet, "/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if env.Code != "SS-SYS-5030" {
			t.Errorf("code = %s", env.Code)
		}
		var details ReadyResponse
		if err := json.Unmarshal(env.Details, &details); err != nil {
			t.Fatal(err)
		}
		if details.Slots["producer"] != "crashed" {
			t.Errorf("details = %+v", details)
		}
	})

	t.Run("no supervisor", func(t *testing.T) {
		h, _ := newTestHandler(t, func(c *Config) { c.Supervisor = nil })
		rec, _ := do(t, h, http.MethodGet, "/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

// ============================================================================
// Models
// ============================================================================

func TestHandler_ListModels(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, env := do(t, h, http.MethodGet, "/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data ModelsResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Count != 2 || len(data.Models) != 2 {
		t.Fatalf("data = %+v", data)
	}
	if got := data.Models["gear_A"].Position.X; got != 1 {
		t.Errorf("gear_A x = %v, want 1", got)
	}
}

func TestHandler_GetModel(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, env := do(t, h, http.MethodGet, "/models/gear_B", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var data ModelResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Name != "gear_B" || data.State.Position.X != -1 {
		t.Errorf("data = %+v", data)
	}
	if data.State.Rotation != domain.IdentityQuaternion {
		t.Errorf("rotation = %+v, want identity", data.State.Rotation)
	}

	rec, env = do(t, h, http.MethodGet, "/models/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Code != domain.ErrModelNotFound.Code {
		t.Errorf("code = %s, want %s", env.Code, domain.ErrModelNotFound.Code)
	}
	if rec.Header().Get("X-Error-Code") != env.Code {
		t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
	}
}

func TestHandler_ModelsWithoutBuffer(t *testing.T) {
	h, _ := newTestHandler(t, func(c *Config) { c.Buffer = nil })

	rec, _ := do(t, h, http.MethodGet, "/models", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// ============================================================================
// Commands
// ============================================================================

func TestHandler_SubmitCommand(t *testing.T) {
	h, sink := newTestHandler(t, nil)

	rec, env := do(t, h, http.MethodPost, "/commands", `{"type":"set_speed","model":"gear_A","value":2.5}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", rec.Code, rec.Body.String())
	}

	var data CommandResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if !data.Accepted || data.Type != domain.CommandSetSpeed || data.Model != "gear_A" {
		t.Errorf("data = %+v", data)
	}

	cmds := sink.submitted()
	if len(cmds) != 1 {
		t.Fatalf("submitted %d commands, want 1", len(cmds))
	}
	if cmds[0].Value != 2.5 || cmds[0].Source != "http:req-test" {
		t.Errorf("command = %+v", cmds[0])
	}
}

func TestHandler_SubmitCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sinkErr  error
		noSink   bool
		maxBody  int64
		wantCode int
		wantErr  string
	}{
		{name: "malformed json", body: `{"type":`, wantCode: http.StatusBadRequest, wantErr: "SS-SYS-4000"},
		{name: "unknown type", body: `{"type":"explode"}`, wantCode: http.StatusBadRequest, wantErr: "SS-CMD-4000"},
		{name: "set_speed without model", body: `{"type":"set_speed","value":1}`, wantCode: http.StatusBadRequest, wantErr: "SS-CMD-4000"},
		{name: "unknown model", body: `{"type":"set_speed","model":"nope","value":1}`, sinkErr: domain.ErrModelNotFound, wantCode: http.StatusNotFound, wantErr: "SS-MODEL-4040"},
		{name: "inbox full", body: `{"type":"pause"}`, sinkErr: domain.ErrCommandRejected, wantCode: http.StatusTooManyRequests, wantErr: "SS-CMD-4290"},
		{name: "internal", body: `{"type":"pause"}`, sinkErr: errors.New("boom"), wantCode: http.StatusInternalServerError, wantErr: "SS-SYS-5000"},
		{name: "no sink", body: `{"type":"pause"}`, noSink: true, wantCode: http.StatusServiceUnavailable, wantErr: "SS-SYS-5030"},
		{name: "body too large", body: `{"type":"pause","model":"` + strings.Repeat("x", 128) + `"}`, maxBody: 32, wantCode: http.StatusRequestEntityTooLarge, wantErr: "SS-SYS-4130"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sink := newTestHandler(t, func(c *Config) {
				if tt.noSink {
					c.Commands = nil
				}
				if tt.maxBody > 0 {
					c.MaxBodyBytes = tt.maxBody
				}
			})
			sink.err = tt.sinkErr

			rec, env := do(t, h, http.MethodPost, "/commands", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if env.Code != tt.wantErr {
				t.Errorf("code = %s, want %s", env.Code, tt.wantErr)
			}
			if len(sink.submitted()) != 0 {
				t.Error("no command should be submitted")
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/commands", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// ============================================================================
// Status
// ============================================================================

func TestHandler_Status(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, env := do(t, h, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data StatusResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if !data.Ready || len(data.Slots) != 2 {
		t.Errorf("slots = %+v ready = %v", data.Slots, data.Ready)
	}
	if data.Slots[0].State != supervisor.StateRunning {
		t.Errorf("slot state = %v", data.Slots[0].State)
	}
	if data.Buffer == nil || data.Buffer.Models != 2 {
		t.Errorf("buffer = %+v", data.Buffer)
	}
	if data.Inbox == nil || data.Inbox.Pending != 2 {
		t.Errorf("inbox = %+v", data.Inbox)
	}
	if data.Hub == nil || data.Hub.Clients != 1 {
		t.Errorf("hub = %+v", data.Hub)
	}
	if data.Clients != nil {
		t.Errorf("clients listed without ?clients: %+v", data.Clients)
	}

	_, env = do(t, h, http.MethodGet, "/status?clients=1", "")
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Clients) != 1 || data.Clients[0].ID != "c1" {
		t.Errorf("clients = %+v", data.Clients)
	}
}

func TestHandler_StatusPartial(t *testing.T) {
	h := New(Config{})

	rec, env := do(t, h, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var data StatusResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Ready || data.Buffer != nil || data.Hub != nil {
		t.Errorf("data = %+v", data)
	}
	if _, err := time.ParseDuration(data.Uptime); err != nil {
		t.Errorf("uptime %q: %v", data.Uptime, err)
	}
}

// ============================================================================
// Error mapping
// ============================================================================

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"SS-MODEL-4040", http.StatusNotFound},
		{"SS-SYS-4040", http.StatusNotFound},
		{"SS-BUF-4090", http.StatusConflict},
		{"SS-SUP-4091", http.StatusConflict},
		{"SS-CMD-4290", http.StatusTooManyRequests},
		{"SS-SYS-4000", http.StatusBadRequest},
		{"SS-CMD-4000", http.StatusBadRequest},
		{"SS-SYS-4030", http.StatusForbidden},
		{"SS-SYS-4130", http.StatusRequestEntityTooLarge},
		{"SS-SYS-5030", http.StatusServiceUnavailable},
		{"SS-SUP-5040", http.StatusGatewayTimeout},
		{"SS-WORK-5000", http.StatusInternalServerError},
		{"garbage", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := errorCodeToHTTPStatus(tt.code); got != tt.want {
				t.Errorf("errorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
