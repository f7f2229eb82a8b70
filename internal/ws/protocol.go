package ws

import "burn-casino/internal/session"

const ProtocolVersion = "1.0"

// Client to server.

type JoinMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Name      string `json:"name,omitempty"`
}

// SubscribeMessage watches a session. With PlayerID set the stream carries
// that seat's private view, otherwise the public one.
type SubscribeMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id,omitempty"`
}

type ActionMessage struct {
	Type      string   `json:"type"`
	RequestID string   `json:"request_id,omitempty"`
	Kind      string   `json:"kind"`
	Action    string   `json:"action,omitempty"`
	Cards     []string `json:"cards,omitempty"`
}

// Server to client.

type JoinResult struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ok              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	PlayerID        string `json:"player_id,omitempty"`
}

type ActionResult struct {
	Type            string                `json:"type"`
	ProtocolVersion string                `json:"protocol_version"`
	RequestID       string                `json:"request_id,omitempty"`
	Ok              bool                  `json:"ok"`
	Error           string                `json:"error,omitempty"`
	Result          *session.ActionResult `json:"result,omitempty"`
}

type StateUpdate struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Event           string `json:"event"`
	EventID         string `json:"event_id,omitempty"`
	State           any    `json:"state"`
}

type SessionClosed struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
}
