package hub

import "time"

// DefaultRoom is the well-known room every dashboard view joins so a single
// notify reaches all of them.
const DefaultRoom = "dashboard"

// Server-to-client event types. The envelope is a closed set: Type
// discriminates, and only the primitive fields belonging to that type are
// populated.
const (
	EventConnectionResponse = "connection_response"
	EventClientCount        = "client_count"
	EventRoomJoined         = "room_joined"
	EventRoomLeft           = "room_left"
	EventPanelChange        = "panel_change"
	EventPong               = "pong"
)

// Event is the wire envelope for every server-to-client message.
type Event struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id,omitempty"`
	Room       string    `json:"room,omitempty"`
	PanelID    string    `json:"panel_id,omitempty"`
	Count      int       `json:"count,omitempty"`
	SentAt     float64   `json:"sent_at,omitempty"`
	ServerTime int64     `json:"server_time,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client-to-server actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
	ActionPing  = "ping"
)

// ClientMessage is a frame received from a dashboard client.
type ClientMessage struct {
	Action string  `json:"action"`
	Room   string  `json:"room,omitempty"`
	SentAt float64 `json:"sent_at,omitempty"`
}
