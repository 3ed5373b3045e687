package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wnusair/miami-MTI/internal/metrics"
	"github.com/wnusair/miami-MTI/pkg/logging"
)

// Hub maintains the set of live dashboard sessions and their room
// memberships, and fans panel-change notifications out to room members.
//
// The registry (session set, room multi-map, per-session reverse index) is
// the single shared mutable resource; every mutation happens under mu.
// Delivery is fire-and-forget: a send to a slow or gone receiver is dropped,
// and the client's periodic full-refresh poll is the correctness backstop.
type Hub struct {
	logger  logging.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[*Session]struct{}
	rooms    map[string]map[*Session]struct{}
}

// NewHub creates a hub with an empty registry. metrics may be nil.
func NewHub(logger logging.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		logger:   logger,
		metrics:  m,
		sessions: make(map[*Session]struct{}),
		rooms:    make(map[string]map[*Session]struct{}),
	}
}

// Register adds a session to the registry with no room memberships. It
// always succeeds; registering an already-registered session is a no-op.
// The new session receives a connection_response and every session receives
// the updated client count.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; ok {
		return
	}
	h.sessions[s] = struct{}{}
	s.hub = h

	h.deliverLocked(s, EventConnectionResponse, h.marshal(Event{
		Type:      EventConnectionResponse,
		SessionID: s.ID,
		Timestamp: time.Now().UTC(),
	}))
	h.broadcastCountLocked()

	h.logger.WithFields(logging.Fields{
		"session_id":   s.ID,
		"client_count": len(h.sessions),
	}).Info("Client connected")
}

// Unregister removes a session from every room it was in and from the
// registry, atomically with respect to all other hub operations, and closes
// its outbound channel. Calling it again for the same session is a no-op.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}

	for room := range s.rooms {
		h.dropMemberLocked(s, room)
	}
	delete(h.sessions, s)
	close(s.send)

	h.broadcastCountLocked()

	h.logger.WithFields(logging.Fields{
		"session_id":   s.ID,
		"client_count": len(h.sessions),
	}).Info("Client disconnected")
}

// Join adds a session to a named room. Idempotent: joining a room the
// session is already in only re-sends the confirmation. Unknown sessions
// are ignored (they may race their own teardown).
func (h *Hub) Join(s *Session, room string) {
	if room == "" {
		room = DefaultRoom
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}

	if _, member := s.rooms[room]; !member {
		members := h.rooms[room]
		if members == nil {
			members = make(map[*Session]struct{})
			h.rooms[room] = members
		}
		members[s] = struct{}{}
		s.rooms[room] = struct{}{}
		h.setRoomGaugeLocked(room)
	}

	h.deliverLocked(s, EventRoomJoined, h.marshal(Event{
		Type:      EventRoomJoined,
		Room:      room,
		Timestamp: time.Now().UTC(),
	}))

	h.logger.WithFields(logging.Fields{
		"session_id": s.ID,
		"room":       room,
	}).Debug("Session joined room")
}

// Leave removes a session from a named room. Idempotent: leaving a room the
// session is not in only re-sends the confirmation. The room's bookkeeping
// entry is dropped when its last member leaves.
func (h *Hub) Leave(s *Session, room string) {
	if room == "" {
		room = DefaultRoom
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}

	if _, member := s.rooms[room]; member {
		h.dropMemberLocked(s, room)
		delete(s.rooms, room)
	}

	h.deliverLocked(s, EventRoomLeft, h.marshal(Event{
		Type:      EventRoomLeft,
		Room:      room,
		Timestamp: time.Now().UTC(),
	}))

	h.logger.WithFields(logging.Fields{
		"session_id": s.ID,
		"room":       room,
	}).Debug("Session left room")
}

// Notify delivers a panel-change event to every session that is a member of
// room at call time. It never blocks: each send is a non-blocking enqueue on
// the member's outbound channel, and overflow is dropped. A room with no
// members is a silent no-op.
func (h *Hub) Notify(room, panelID string) {
	payload := h.marshal(Event{
		Type:      EventPanelChange,
		Room:      room,
		PanelID:   panelID,
		Timestamp: time.Now().UTC(),
	})
	if payload == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.rooms[room] {
		h.deliverLocked(s, EventPanelChange, payload)
	}
}

// Echo answers a latency probe: the client's sent_at comes straight back
// with a server timestamp attached. No state is retained.
func (h *Hub) Echo(s *Session, sentAt float64) {
	payload := h.marshal(Event{
		Type:       EventPong,
		SentAt:     sentAt,
		ServerTime: time.Now().UnixMilli(),
		Timestamp:  time.Now().UTC(),
	})
	if payload == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}
	h.deliverLocked(s, EventPong, payload)
}

// ConnectedCount returns the current registry size, consistent with the most
// recently completed Register/Unregister.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomCount returns the number of sessions currently in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// handleClientMessage dispatches one parsed frame from a session's read pump.
func (h *Hub) handleClientMessage(s *Session, msg *ClientMessage) {
	if h.metrics != nil {
		h.metrics.HubEvents.WithLabelValues(msg.Action, "in").Inc()
	}

	switch msg.Action {
	case ActionJoin:
		h.Join(s, msg.Room)
	case ActionLeave:
		h.Leave(s, msg.Room)
	case ActionPing:
		h.Echo(s, msg.SentAt)
	default:
		h.logger.WithFields(logging.Fields{
			"session_id": s.ID,
			"action":     msg.Action,
		}).Debug("Skipping unknown client action")
	}
}

// dropMemberLocked removes s from a room's member set and deletes the room
// entry when it empties. Does not touch s.rooms. Requires h.mu (write).
func (h *Hub) dropMemberLocked(s *Session, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, room)
		if h.metrics != nil {
			h.metrics.HubConnections.DeleteLabelValues(room)
		}
		return
	}
	h.setRoomGaugeLocked(room)
}

// deliverLocked enqueues a payload on a session's outbound channel without
// blocking. Requires h.mu held (read or write); Unregister closes the
// channel only under the write lock, so a send here can never hit a closed
// channel.
func (h *Hub) deliverLocked(s *Session, eventType string, payload []byte) {
	if payload == nil {
		return
	}
	select {
	case s.send <- payload:
		if h.metrics != nil {
			h.metrics.HubEvents.WithLabelValues(eventType, "out").Inc()
		}
	default:
		// Receiver is slow or gone. The poll loop covers the loss.
		if h.metrics != nil {
			h.metrics.DroppedEvents.WithLabelValues(eventType).Inc()
		}
	}
}

// broadcastCountLocked pushes the current client count to every session.
// Requires h.mu (write).
func (h *Hub) broadcastCountLocked() {
	if h.metrics != nil {
		h.metrics.HubConnections.WithLabelValues("all").Set(float64(len(h.sessions)))
	}

	payload := h.marshal(Event{
		Type:      EventClientCount,
		Count:     len(h.sessions),
		Timestamp: time.Now().UTC(),
	})
	for s := range h.sessions {
		h.deliverLocked(s, EventClientCount, payload)
	}
}

func (h *Hub) setRoomGaugeLocked(room string) {
	if h.metrics != nil {
		h.metrics.HubConnections.WithLabelValues(room).Set(float64(len(h.rooms[room])))
	}
}

func (h *Hub) marshal(event Event) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).WithField("type", event.Type).Error("Failed to marshal hub event")
		return nil
	}
	return payload
}
