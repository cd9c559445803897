package command

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/service"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/server/httpserver"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
)

// recordingSink collects commands that pass the gate.
type recordingSink struct {
	mu   sync.Mutex
	cmds []domain.Command
}

func (s *recordingSink) Submit(cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *recordingSink) submitted() []domain.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Command(nil), s.cmds...)
}

type fakeSlots struct{}

func (fakeSlots) Ready() bool { return true }
func (fakeSlots) Status() []supervisor.SlotStatus {
	return []supervisor.SlotStatus{
		{Name: "producer", State: supervisor.StateRunning, Alive: true, Iterations: 120},
		{Name: "broadcaster", State: supervisor.StateRunning, Alive: true, Restarts: 1, LastError: "write timeout"},
	}
}

// testServer runs the real HTTP router and WebSocket hub.
type testServer struct {
	*httptest.Server
	buf  *snapbuf.Buffer
	hub  *wsserver.Hub
	sink *recordingSink
}

func testScene() domain.Snapshot {
	a := domain.NewModelState(domain.Vector3{X: 0.04})
	a.Extra = map[string]any{"angle": 0.5, "speed": 2.0, "mesh": "gear_a.glb"}
	b := domain.NewModelState(domain.Vector3{X: -0.02})
	b.Extra = map[string]any{"angle": -1.0, "speed": -4.0}
	return domain.Snapshot{"gear_A": a, "gear_B": b}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	buf := snapbuf.New(testScene())
	sink := &recordingSink{}
	gate := service.NewCommandGate(buf, sink)
	hub := wsserver.New(nil, buf, gate)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Config{
			Buffer:     buf,
			Commands:   gate,
			Supervisor: fakeSlots{},
			Hub:        hub,
		},
		Hub: hub,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return &testServer{Server: srv, buf: buf, hub: hub, sink: sink}
}

// publishUntil keeps publishing fresh snapshots until done is closed.
func (s *testServer) publishUntil(done <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for seq := uint64(1); ; seq++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = s.hub.Publish(context.Background(), seq, testScene())
		}
	}
}

// runCLI runs the app against server and returns stdout.
func runCLI(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"simsync-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml")}
	if server != "" {
		full = append(full, "--server", server)
	}
	full = append(full, args...)

	err := app.Run(full)
	return out.String(), err
}
