package wsserver

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yndnr/simsync-go/internal/core/domain"
)

// controlQueueSize bounds pending error frames per client.
const controlQueueSize = 8

// ClientInfo describes a connected client.
type ClientInfo struct {
	ID          string    `json:"id"`
	Remote      string    `json:"remote"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeq     uint64    `json:"last_seq"`
	Sent        uint64    `json:"sent"`
	Dropped     uint64    `json:"dropped"`
}

type frame struct {
	seq  uint64
	data []byte
}

// Client is a single WebSocket connection.
type Client struct {
	id          string
	remote      string
	connectedAt time.Time
	conn        *websocket.Conn
	hub         *Hub
	limiter     *rate.Limiter

	// mu orders deliveries; mailbox holds at most the newest frame.
	mu        sync.Mutex
	mailbox   chan frame
	queued    uint64
	hasQueued bool

	control chan []byte

	sent    atomic.Uint64
	dropped atomic.Uint64
	lastSeq atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	c := &Client{
		id:          id,
		remote:      conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		conn:        conn,
		hub:         hub,
		mailbox:     make(chan frame, 1),
		control:     make(chan []byte, controlQueueSize),
		done:        make(chan struct{}),
	}
	if r := hub.cfg.CommandRate; r > 0 {
		burst := int(r)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
	return c
}

// deliver offers a frame, replacing an unsent older one. Frames at or
// below the last queued seq are ignored.
func (c *Client) deliver(seq uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasQueued && seq <= c.queued {
		return
	}

	select {
	case <-c.mailbox:
		c.dropped.Add(1)
		c.hub.dropped.Add(1)
		c.hub.observer.OnFrameDropped()
	default:
	}

	// Only the writer receives and mu is held, so the slot is free.
	c.mailbox <- frame{seq: seq, data: data}
	c.queued = seq
	c.hasQueued = true
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case f := <-c.mailbox:
			if err := c.write(websocket.TextMessage, f.data); err != nil {
				c.hub.logger.Debug("websocket write failed", "client", c.id, "error", err)
				c.close(0, "")
				return
			}
			c.sent.Add(1)
			c.lastSeq.Store(f.seq)
			c.hub.observer.OnFrameSent()
		case data := <-c.control:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.close(0, "")
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.hub.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.hub.logger.Debug("websocket ping failed", "client", c.id, "error", err)
				c.close(0, "")
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) readLoop() {
	defer c.close(0, "")

	pongWait := c.hub.cfg.pongWait()
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("websocket read failed", "client", c.id, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if messageType != websocket.TextMessage {
			c.reply(domain.ErrBadRequest.WithDetails("expected a text frame"))
			c.hub.observer.OnCommand(CommandMalformed)
			continue
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		c.reply(domain.ErrRateLimited)
		c.hub.observer.OnCommand(CommandRateLimited)
		return
	}

	cmd, err := domain.ParseCommand(data)
	if err != nil {
		c.reply(err)
		if errors.Is(err, domain.ErrBadRequest) {
			c.hub.observer.OnCommand(CommandMalformed)
		} else {
			c.hub.observer.OnCommand(CommandRejected)
		}
		return
	}

	if c.hub.sink == nil {
		c.reply(domain.ErrServiceUnavailable.WithDetails("commands are not accepted"))
		c.hub.observer.OnCommand(CommandRejected)
		return
	}

	cmd.Source = c.id
	if err := c.hub.sink.Submit(cmd); err != nil {
		c.hub.logger.Debug("command rejected", "client", c.id, "type", cmd.Type, "error", err)
		c.reply(err)
		c.hub.observer.OnCommand(CommandRejected)
		return
	}
	c.hub.observer.OnCommand(CommandAccepted)
}

// reply queues an error frame; it is dropped if the queue is full.
func (c *Client) reply(err error) {
	select {
	case c.control <- EncodeError(err):
	default:
	}
}

// close tears the connection down once. A non-zero code sends a close frame.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		if code != 0 {
			msg := websocket.FormatCloseMessage(code, reason)
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.hub.cfg.WriteTimeout))
		}
		_ = c.conn.Close()
		c.hub.remove(c)
		c.hub.logger.Info("websocket client disconnected",
			"client", c.id,
			"sent", c.sent.Load(),
			"dropped", c.dropped.Load(),
		)
	})
}

func (c *Client) info() ClientInfo {
	return ClientInfo{
		ID:          c.id,
		Remote:      c.remote,
		ConnectedAt: c.connectedAt,
		LastSeq:     c.lastSeq.Load(),
		Sent:        c.sent.Load(),
		Dropped:     c.dropped.Load(),
	}
}
