package wsserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/service"
	"github.com/yndnr/simsync-go/pkg/cmap"
)

// Config holds the WebSocket hub configuration.
type Config struct {
	// WriteTimeout bounds every frame write (default: 5s).
	WriteTimeout time.Duration
	// PingInterval is the time between pings (default: 30s). A client that
	// stays silent for two intervals is dropped.
	PingInterval time.Duration
	// CommandRate is the allowed inbound messages per second per client
	// (default: 20). Zero disables the limit.
	CommandRate float64
	// MaxMessageBytes caps inbound frame size (default: 64KiB).
	MaxMessageBytes int64
	// AllowedOrigins lists accepted Origin headers; empty accepts any.
	AllowedOrigins []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		WriteTimeout:    5 * time.Second,
		PingInterval:    30 * time.Second,
		CommandRate:     20,
		MaxMessageBytes: 64 << 10,
	}
}

func (c *Config) pongWait() time.Duration {
	return 2 * c.PingInterval
}

// Observer receives hub events. telemetry/metric.Registry implements it.
type Observer interface {
	OnClientConnected()
	OnClientDisconnected()
	OnFrameSent()
	OnFrameDropped()
	OnCommand(result string)
}

type nopObserver struct{}

func (nopObserver) OnClientConnected()    {}
func (nopObserver) OnClientDisconnected() {}
func (nopObserver) OnFrameSent()          {}
func (nopObserver) OnFrameDropped()       {}
func (nopObserver) OnCommand(string)      {}

// Command results reported to Observer.OnCommand.
const (
	CommandAccepted    = "accepted"
	CommandRejected    = "rejected"
	CommandRateLimited = "rate_limited"
	CommandMalformed   = "malformed"
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Clients   int    `json:"clients"`
	Published uint64 `json:"published"`
	LastSeq   uint64 `json:"last_seq"`
	Dropped   uint64 `json:"dropped"`
}

// Hub fans snapshots out to WebSocket clients.
type Hub struct {
	cfg      *Config
	source   service.SnapshotSource
	sink     service.CommandSink
	upgrader websocket.Upgrader
	logger   *slog.Logger
	observer Observer

	clients *cmap.Map[string, *Client]

	closed    atomic.Bool
	published atomic.Uint64
	lastSeq   atomic.Uint64
	dropped   atomic.Uint64
	wg        sync.WaitGroup
}

// New creates a hub. source provides the snapshot sent on connect and
// sink receives inbound commands; either may be nil.
func New(cfg *Config, source service.SnapshotSource, sink service.CommandSink, opts ...Option) *Hub {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}

	h := &Hub{
		cfg:      cfg,
		source:   source,
		sink:     sink,
		logger:   slog.Default(),
		observer: nopObserver{},
		clients:  cmap.New[string, *Client](),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 16384,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Publish implements service.Publisher. It never blocks on a client.
func (h *Hub) Publish(_ context.Context, seq uint64, snap domain.Snapshot) error {
	if h.closed.Load() {
		return service.ErrTransportClosed
	}

	data, err := EncodeSnapshot(seq, snap)
	if err != nil {
		return err
	}

	h.clients.Range(func(_ string, c *Client) bool {
		c.deliver(seq, data)
		return true
	})
	h.published.Add(1)
	h.lastSeq.Store(seq)
	return nil
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newClient(ulid.Make().String(), conn, h)
	h.clients.Set(c.id, c)
	h.observer.OnClientConnected()
	h.logger.Info("websocket client connected", "client", c.id, "remote", c.remote)

	// Registered first so no commit between the read and the registration
	// is lost; deliver discards whichever of the two frames is older.
	if h.source != nil {
		snap, seq := h.source.ReadVersion()
		if data, err := EncodeSnapshot(seq, snap); err == nil {
			c.deliver(seq, data)
		} else {
			h.logger.Error("encode initial snapshot", "client", c.id, "error", err)
		}
	}

	// A Close racing with the registration above must still reach c.
	if h.closed.Load() {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer h.wg.Done()
		c.readLoop()
	}()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	return h.clients.Count()
}

// Clients returns a view of every connected client.
func (h *Hub) Clients() []ClientInfo {
	clients := h.clients.Values()
	out := make([]ClientInfo, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.info())
	}
	return out
}

// Stats returns hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients:   h.clients.Count(),
		Published: h.published.Load(),
		LastSeq:   h.lastSeq.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Close disconnects every client. Later Publish calls return
// service.ErrTransportClosed. It is safe to call more than once.
func (h *Hub) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, c := range h.clients.Values() {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.logger.Info("websocket hub closed")
	return nil
}

// Shutdown closes the hub and waits for client goroutines, bounded by ctx.
func (h *Hub) Shutdown(ctx context.Context) error {
	_ = h.Close()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients.Pop(c.id); ok {
		h.observer.OnClientDisconnected()
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
