package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pookielabs/pookieverse/internal/engine"
	"github.com/pookielabs/pookieverse/internal/world"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Cross-origin control happens in corsMiddleware; the websocket
	// handshake accepts any origin the browser let through.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleListen streams state snapshots over a websocket. The client gets
// the current state immediately, then one frame per change notification.
// Slow clients skip intermediate frames rather than stalling the engine.
func (s *Server) handleListen(w http.ResponseWriter, r *http.Request, wld *engine.World) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "world", wld.ID(), "error", err)
		return
	}

	// Latest-wins buffer: if the client is behind, replace the queued
	// snapshot instead of queueing another.
	frames := make(chan *world.State, 1)
	push := func(snap *world.State) {
		for {
			select {
			case frames <- snap:
				return
			default:
				select {
				case <-frames:
				default:
				}
			}
		}
	}

	sub := wld.Subscribe(push)
	push(wld.Snapshot())

	done := make(chan struct{})

	// Reader exists only to notice the peer going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			sub.Unsubscribe()
			conn.Close()
		}()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case snap := <-frames:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(snap); err != nil {
					slog.Debug("websocket write failed", "world", wld.ID(), "error", err)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
