package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send transport pings with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from a client
	maxMessageSize = 512

	// Outbound queue depth per session; overflow is dropped
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Session is one live connection from a browser. It is owned exclusively by
// the hub: created on connect, destroyed on disconnect, never persisted.
type Session struct {
	ID          string
	ConnectedAt time.Time

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms is the reverse index of room memberships; guarded by hub.mu.
	rooms map[string]struct{}
}

// NewSession creates a session that is not yet registered with a hub and not
// bound to a transport. Register it, then read delivered events from Outbox.
// ServeWS uses the same constructor and attaches the WebSocket pumps.
func NewSession() *Session {
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: time.Now().UTC(),
		send:        make(chan []byte, sendBuffer),
		rooms:       make(map[string]struct{}),
	}
}

// Outbox exposes the session's outbound event stream. The channel is closed
// when the session is unregistered.
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

// ServeWS upgrades an HTTP request to a WebSocket connection and runs it as
// a hub session until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	s := NewSession()
	s.conn = conn
	h.Register(s)

	go s.writePump()
	go s.readPump()
}

// readPump pumps frames from the WebSocket connection into the hub. It runs
// in its own goroutine per session and guarantees the session is
// unregistered when the connection dies.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.WithError(err).WithField("session_id", s.ID).Warn("WebSocket connection error")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.hub.logger.WithError(err).WithField("session_id", s.ID).Debug("Skipping malformed client frame")
			continue
		}

		s.hub.handleClientMessage(s, &msg)
	}
}

// writePump pumps events from the hub to the WebSocket connection and keeps
// the transport alive with periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel on unregister
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any events queued behind this one
			n := len(s.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-s.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
