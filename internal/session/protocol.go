package session

import "encoding/json"

// Message is the websocket envelope. The server stamps the identity
// fields after decoding; clients cannot spoof them.
type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeDocSync = "doc.sync"

	// Board mutations
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"

	// Awareness
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeLaserMove      = "laser.move"

	TypeError = "error"
)

// Operation types.
const (
	OpStrokeAdd   = "stroke.add"
	OpStrokeErase = "stroke.erase"
	OpTranslate   = "sel.translate"
	OpUndo        = "edit.undo"
	OpRedo        = "edit.redo"
	OpClear       = "board.clear"
	OpBackground  = "board.background"
	OpViewUpdate  = "view.update"
)

// Operation is one board mutation. The optional fields are read
// according to Type.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`

	// stroke.add
	Stroke json.RawMessage `json:"stroke,omitempty"`

	// stroke.erase, sel.translate
	Indices []int   `json:"indices,omitempty"`
	DX      float64 `json:"dx,omitempty"`
	DY      float64 `json:"dy,omitempty"`

	// board.background
	Background string `json:"background,omitempty"`

	// view.update; nil fields keep their current value
	OffsetX *float64 `json:"offsetX,omitempty"`
	OffsetY *float64 `json:"offsetY,omitempty"`
	Scale   *float64 `json:"scale,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages.
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages.
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages.
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages.
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// WelcomePayload carries the authoritative document on join and on
// doc.sync requests.
type WelcomePayload struct {
	BoardID   string          `json:"boardId"`
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// LaserPayload is an ephemeral pointer sample, relayed to the room
// without touching board state. Done marks the end of a trail.
type LaserPayload struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Done bool    `json:"done,omitempty"`
}
