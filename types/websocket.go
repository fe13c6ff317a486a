package types

import "time"

// Message types pushed over the session websocket.
const (
	MessageState  = "state"
	MessageClosed = "closed"
)

// StateMessage is pushed to websocket subscribers whenever a session publishes a snapshot.
// Seq never decreases within a session; clients drop messages older than the last one applied.
type StateMessage struct {
	SessionID string        `json:"sessionId"`
	Type      string        `json:"type"`
	Seq       uint64        `json:"seq,omitempty"`
	State     *BrowserState `json:"state,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
