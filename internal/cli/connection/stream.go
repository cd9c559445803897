package connection

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/simsync-go/internal/server/wsserver"
)

// Stream is a WebSocket subscription to committed snapshots.
type Stream struct {
	conn *websocket.Conn
}

// Dial opens the snapshot stream at /ws.
func (c *HTTPClient) Dial(ctx context.Context) (*Stream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.client.Timeout,
		TLSClientConfig:  c.tlsConfig,
		Proxy:            http.ProxyFromEnvironment,
	}
	header := http.Header{}
	header.Set("User-Agent", userAgent)

	conn, resp, err := dialer.DialContext(ctx, c.WebSocketURL("/ws"), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &Stream{conn: conn}, nil
}

// Next blocks for the next snapshot frame. An error frame from the
// server is returned as a *domain.DomainError.
func (s *Stream) Next() (wsserver.SnapshotMessage, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return wsserver.SnapshotMessage{}, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return wsserver.DecodeSnapshot(data)
	}
}

// Close sends a normal close frame and closes the connection.
func (s *Stream) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

// IsNormalClose reports whether err is a clean close by either side.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
