package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/infra/tlsroots"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
)

func TestNew(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s := New(":8080", h)
	if s == nil {
		t.Fatal("New returned nil")
	}
	if s.httpServer.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout should be set")
	}
	if s.Addr() != ":8080" {
		t.Errorf("Addr() = %q before Listen", s.Addr())
	}
}

func TestServer_ServeTLS(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	if err := tlsroots.WriteSelfSigned(certFile, keyFile, []string{"127.0.0.1"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	reloader, err := tlsroots.NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}

	s := New("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "secure")
	}))
	s.SetTLSConfig(reloader.ServerConfig())
	if err := s.Listen(); err != nil {
		t.Fatal(err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve("", "")
	}()

	clientTLS, err := tlsroots.ClientConfig(certFile)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: clientTLS}, Timeout: 5 * time.Second}

	resp, err := client.Get("https://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "secure" {
		t.Errorf("body = %q", body)
	}

	// Plain HTTP against the TLS listener must not succeed.
	if resp, err := http.Get("http://" + s.Addr() + "/"); err == nil {
		if resp.StatusCode == http.StatusOK {
			t.Error("plain HTTP request succeeded on a TLS server")
		}
		resp.Body.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
	if err := <-errChan; err != nil {
		t.Errorf("Serve returned %v, want nil after Shutdown", err)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s := New("127.0.0.1:0", h)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Fatalf("Addr() = %q, want bound port", s.Addr())
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ListenAndServe()
	}()

	resp, err := http.Get("http://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("ListenAndServe returned %v, want nil after Shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for ListenAndServe to return")
	}
}

func TestServer_ListenError(t *testing.T) {
	s := New("256.0.0.1:99999", http.NotFoundHandler())
	if err := s.ListenAndServe(); err == nil {
		t.Error("expected error for invalid address")
	}
}

// ============================================================================
// Router
// ============================================================================

type routerSink struct{ got []domain.Command }

func (s *routerSink) Submit(cmd domain.Command) error {
	s.got = append(s.got, cmd)
	return nil
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (http.Handler, *snapbuf.Buffer) {
	t.Helper()
	buf := snapbuf.New(domain.Snapshot{
		"gear_A": domain.NewModelState(domain.Vector3{}),
	})
	cfg := &RouterConfig{
		Handler: handler.Config{Buffer: buf, Commands: &routerSink{}},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "simsync_up 1\n")
		}),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg), buf
}

func get(t *testing.T, h http.Handler, target string, remote string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	tests := []struct {
		target string
		want   int
	}{
		{"/health", http.StatusOK},
		{"/models", http.StatusOK},
		{"/models/gear_A", http.StatusOK},
		{"/models/nope", http.StatusNotFound},
		{"/status", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/resources/gear.glb", http.StatusNotFound},
		{"/no/such/route", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, r, tt.target, "")
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d (%s)", tt.target, rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID on every response")
			}
		})
	}
}

func TestRouter_NotFoundEnvelope(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := get(t, r, "/nowhere", "")
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	if body["code"] != "SS-SYS-4040" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestRouter_Commands(t *testing.T) {
	sink := &routerSink{}
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.Handler.Commands = sink })

	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(`{"type":"pause"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if len(sink.got) != 1 || !strings.HasPrefix(sink.got[0].Source, "http:req-") {
		t.Errorf("submitted = %+v", sink.got)
	}
}

func TestRouter_ControlAllowList(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) {
		c.ControlAllowList = []string{"127.0.0.1"}
	})

	if rec := get(t, r, "/status", "10.0.0.5:1234"); rec.Code != http.StatusForbidden {
		t.Errorf("/status from outside = %d, want 403", rec.Code)
	}
	if rec := get(t, r, "/metrics", "10.0.0.5:1234"); rec.Code != http.StatusForbidden {
		t.Errorf("/metrics from outside = %d, want 403", rec.Code)
	}
	if rec := get(t, r, "/status", "127.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Errorf("/status from loopback = %d, want 200", rec.Code)
	}
	// Read-only routes stay open.
	if rec := get(t, r, "/models", "10.0.0.5:1234"); rec.Code != http.StatusOK {
		t.Errorf("/models from outside = %d, want 200", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.RateLimit = 1 })

	if rec := get(t, r, "/models", "10.0.0.7:1"); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	if rec := get(t, r, "/models", "10.0.0.7:1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", rec.Code)
	}
	// Health is never limited.
	for i := 0; i < 3; i++ {
		if rec := get(t, r, "/health", "10.0.0.7:1"); rec.Code != http.StatusOK {
			t.Errorf("/health = %d", rec.Code)
		}
	}
}

func TestRouter_Resources(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gear.glb"), []byte("glTF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestRouter(t, func(c *RouterConfig) { c.ResourceDir = dir })

	rec := get(t, r, "/resources/gear.glb", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "glTF" {
		t.Errorf("file = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, r, "/resources/missing.glb", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", rec.Code)
	}
	if rec := get(t, r, "/resources/sub/", ""); rec.Code != http.StatusNotFound {
		t.Errorf("directory = %d, want 404", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) {
		c.CORSAllowedOrigins = []string{"http://viewer.local"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/commands", nil)
	req.Header.Set("Origin", "http://viewer.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://viewer.local" {
		t.Error("expected Access-Control-Allow-Origin")
	}
}

func TestRouter_WebSocket(t *testing.T) {
	buf := snapbuf.New(domain.Snapshot{"gear_A": domain.NewModelState(domain.Vector3{})})
	hub := wsserver.New(nil, buf, nil)
	defer hub.Close()

	r := NewRouter(&RouterConfig{
		Handler: handler.Config{Buffer: buf},
		Hub:     hub,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial through middleware: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, err := wsserver.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := msg.Models["gear_A"]; !ok {
		t.Errorf("initial snapshot = %+v", msg.Models)
	}
}
