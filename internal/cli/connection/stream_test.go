package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
)

func TestStream_Next(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frame, _ := wsserver.EncodeSnapshot(5, domain.Snapshot{
			"gear_A": domain.NewModelState(domain.Vector3{X: 1}),
		})
		conn.WriteMessage(websocket.BinaryMessage, []byte{0x1})
		conn.WriteMessage(websocket.TextMessage, frame)
		conn.WriteMessage(websocket.TextMessage, wsserver.EncodeError(domain.ErrRateLimited))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := NewHTTPClient(server.URL, time.Second).Dial(ctx)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer stream.Close()

	msg, err := stream.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Seq != 5 || msg.Models["gear_A"].Position.X != 1 {
		t.Errorf("msg = %+v", msg)
	}

	_, err = stream.Next()
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("error frame = %v, want ErrRateLimited", err)
	}

	_, err = stream.Next()
	if !IsNormalClose(err) {
		t.Errorf("close = %v, want a normal close", err)
	}
}

func TestStream_DialRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, time.Second).Dial(context.Background())
	if err == nil {
		t.Fatal("expected handshake error")
	}
}
