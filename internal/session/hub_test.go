package session

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/store"
)

// The hub is exercised synchronously: addClient, removeClient and
// handleMessage are called directly instead of going through Run, and
// messages are read straight off the client send buffers. No websocket
// connections are involved.

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		return msg
	default:
		t.Fatal("expected a queued message")
	}
	return Message{}
}

func expectNone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		_ = json.Unmarshal(data, &msg)
		t.Fatalf("unexpected message %q", msg.Type)
	default:
	}
}

func drainJoin(t *testing.T, c *Client) {
	t.Helper()
	if msg := recv(t, c); msg.Type != TypeWelcome {
		t.Fatalf("first message = %q, want %q", msg.Type, TypeWelcome)
	}
	if msg := recv(t, c); msg.Type != TypePresenceState {
		t.Fatalf("second message = %q, want %q", msg.Type, TypePresenceState)
	}
}

func submit(t *testing.T, h *Hub, c *Client, op Operation) {
	t.Helper()
	payload, err := json.Marshal(OperationSubmitPayload{Operation: op})
	if err != nil {
		t.Fatalf("marshal submit: %v", err)
	}
	h.handleMessage(c, &Message{Type: TypeOpSubmit, BoardID: c.BoardID, UserID: c.UserID, ClientID: c.ClientID, Payload: payload})
}

func TestHubWelcomeCarriesSavedDocument(t *testing.T) {
	st := store.NewMemory()
	doc := board.NewDocument()
	doc.Append(&board.Freehand{Tool: board.ToolPen, Points: pts(0, 0, 10, 10), Color: "#1864ab", Size: 2, Opacity: 1})
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	if _, err := st.SaveSnapshot(context.Background(), "save_1", "board_1", data); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	h := NewHub(st, nil)
	c := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	h.addClient(c)

	msg := recv(t, c)
	if msg.Type != TypeWelcome {
		t.Fatalf("type = %q, want %q", msg.Type, TypeWelcome)
	}
	var welcome WelcomePayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.BoardID != "board_1" {
		t.Fatalf("board = %q, want board_1", welcome.BoardID)
	}
	var view docView
	if err := json.Unmarshal(welcome.Document, &view); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(view.Strokes) != 1 {
		t.Fatalf("strokes = %d, want 1", len(view.Strokes))
	}

	if msg := recv(t, c); msg.Type != TypePresenceState {
		t.Fatalf("type = %q, want %q", msg.Type, TypePresenceState)
	}
}

func TestHubOpSubmitFanout(t *testing.T) {
	h := NewHub(store.NewMemory(), nil)
	c1 := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	c2 := NewClient(h, nil, "user_2", "Grace", "board_1", "client_2")

	h.addClient(c1)
	drainJoin(t, c1)
	h.addClient(c2)
	drainJoin(t, c2)
	if msg := recv(t, c1); msg.Type != TypePresenceJoin {
		t.Fatalf("type = %q, want %q", msg.Type, TypePresenceJoin)
	}

	submit(t, h, c1, Operation{ID: "op_1", Type: OpStrokeAdd, Stroke: strokeJSON(t, 0, 0, 10, 10)})

	ackMsg := recv(t, c1)
	if ackMsg.Type != TypeOpAck {
		t.Fatalf("type = %q, want %q", ackMsg.Type, TypeOpAck)
	}
	var ack OperationAckPayload
	if err := json.Unmarshal(ackMsg.Payload, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.OperationID != "op_1" || ack.ServerSeq != 1 {
		t.Fatalf("ack = %+v, want op_1 at seq 1", ack)
	}
	// The submitter gets the ack only, never its own broadcast.
	expectNone(t, c1)

	bcastMsg := recv(t, c2)
	if bcastMsg.Type != TypeOpBroadcast {
		t.Fatalf("type = %q, want %q", bcastMsg.Type, TypeOpBroadcast)
	}
	var bcast OperationBroadcastPayload
	if err := json.Unmarshal(bcastMsg.Payload, &bcast); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if bcast.Operation.ID != "op_1" || bcast.UserID != "user_1" || bcast.ServerSeq != 1 {
		t.Fatalf("broadcast = %+v, want op_1 from user_1 at seq 1", bcast)
	}
}

func TestHubOpNack(t *testing.T) {
	h := NewHub(store.NewMemory(), nil)
	c1 := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	c2 := NewClient(h, nil, "user_2", "Grace", "board_1", "client_2")

	h.addClient(c1)
	drainJoin(t, c1)
	h.addClient(c2)
	drainJoin(t, c2)
	recv(t, c1) // join notice for c2

	submit(t, h, c1, Operation{ID: "op_bad", Type: "board.explode"})

	msg := recv(t, c1)
	if msg.Type != TypeOpNack {
		t.Fatalf("type = %q, want %q", msg.Type, TypeOpNack)
	}
	var nack OperationNackPayload
	if err := json.Unmarshal(msg.Payload, &nack); err != nil {
		t.Fatalf("decode nack: %v", err)
	}
	if nack.OperationID != "op_bad" || !strings.Contains(nack.Reason, "unknown operation type") {
		t.Fatalf("nack = %+v", nack)
	}
	// Rejected operations never reach the room.
	expectNone(t, c2)
}

func TestHubLaserRelay(t *testing.T) {
	h := NewHub(store.NewMemory(), nil)
	c1 := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	c2 := NewClient(h, nil, "user_2", "Grace", "board_1", "client_2")

	h.addClient(c1)
	drainJoin(t, c1)
	h.addClient(c2)
	drainJoin(t, c2)
	recv(t, c1) // join notice for c2

	payload, _ := json.Marshal(LaserPayload{X: 120, Y: 80})
	h.handleMessage(c1, &Message{Type: TypeLaserMove, BoardID: "board_1", UserID: "user_1", ClientID: "client_1", Payload: payload})

	msg := recv(t, c2)
	if msg.Type != TypeLaserMove || msg.UserID != "user_1" {
		t.Fatalf("got %q from %q, want laser.move from user_1", msg.Type, msg.UserID)
	}
	expectNone(t, c1)

	// The trail is ephemeral and never lands in the document.
	doc, ok := h.Document("board_1")
	if !ok {
		t.Fatal("room should be open")
	}
	var view docView
	if err := json.Unmarshal(doc, &view); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(view.Strokes) != 0 {
		t.Fatalf("strokes = %d, want 0", len(view.Strokes))
	}
}

func TestHubPresenceFlow(t *testing.T) {
	h := NewHub(store.NewMemory(), nil)
	c1 := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	c2 := NewClient(h, nil, "user_2", "Grace", "board_1", "client_2")

	h.addClient(c1)
	drainJoin(t, c1)
	h.addClient(c2)
	drainJoin(t, c2)
	recv(t, c1) // join notice for c2

	update, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 3, Y: 4}, Tool: "pen", DisplayName: "Spoofed"})
	h.handleMessage(c1, &Message{Type: TypePresenceUpdate, BoardID: "board_1", UserID: "user_1", ClientID: "client_1", Payload: update})

	msg := recv(t, c2)
	if msg.Type != TypePresenceUpdate {
		t.Fatalf("type = %q, want %q", msg.Type, TypePresenceUpdate)
	}
	var p PresencePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	if p.DisplayName != "Ada" {
		t.Fatalf("display name = %q, want the authenticated one", p.DisplayName)
	}
	if p.Cursor == nil || p.Cursor.X != 3 {
		t.Fatalf("cursor = %+v", p.Cursor)
	}

	// A later joiner sees the accumulated presence in its state message.
	c3 := NewClient(h, nil, "user_3", "Edsger", "board_1", "client_3")
	h.addClient(c3)
	if msg := recv(t, c3); msg.Type != TypeWelcome {
		t.Fatalf("type = %q, want %q", msg.Type, TypeWelcome)
	}
	stateMsg := recv(t, c3)
	var state PresenceStatePayload
	if err := json.Unmarshal(stateMsg.Payload, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if _, ok := state.Presences["user_1"]; !ok {
		t.Fatalf("presences = %v, want user_1 present", state.Presences)
	}

	// Leaving mid-session notifies the rest of the room.
	h.removeClient(c2)
	recv(t, c1) // join notice for c3
	if msg := recv(t, c1); msg.Type != TypePresenceLeave {
		t.Fatalf("type = %q, want %q", msg.Type, TypePresenceLeave)
	}
}

func TestHubAutosaveAcrossRestart(t *testing.T) {
	autosave, err := store.NewAutosaver(t.TempDir())
	if err != nil {
		t.Fatalf("NewAutosaver: %v", err)
	}

	h := NewHub(store.NewMemory(), autosave)
	c := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	h.addClient(c)
	drainJoin(t, c)
	submit(t, h, c, Operation{ID: "op_1", Type: OpStrokeAdd, Stroke: strokeJSON(t, 0, 0, 10, 10)})
	recv(t, c) // ack

	// Closing the last connection flushes the room to the autosave.
	h.removeClient(c)
	if _, ok := h.Document("board_1"); ok {
		t.Fatal("room should be gone after the last client leaves")
	}

	// A hub with an empty store recovers the board from the autosave.
	h2 := NewHub(store.NewMemory(), autosave)
	c2 := NewClient(h2, nil, "user_1", "Ada", "board_1", "client_9")
	h2.addClient(c2)

	msg := recv(t, c2)
	var welcome WelcomePayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	var view docView
	if err := json.Unmarshal(welcome.Document, &view); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if len(view.Strokes) != 1 {
		t.Fatalf("strokes = %d, want 1", len(view.Strokes))
	}
}

func TestHubSaveAllMarksClean(t *testing.T) {
	autosave, err := store.NewAutosaver(t.TempDir())
	if err != nil {
		t.Fatalf("NewAutosaver: %v", err)
	}

	h := NewHub(store.NewMemory(), autosave)
	c := NewClient(h, nil, "user_1", "Ada", "board_1", "client_1")
	h.addClient(c)
	drainJoin(t, c)
	submit(t, h, c, Operation{ID: "op_1", Type: OpStrokeAdd, Stroke: strokeJSON(t, 0, 0, 10, 10)})
	recv(t, c) // ack

	h.SaveAll()
	saved, err := autosave.Load("board_1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved == nil {
		t.Fatal("autosave should exist after SaveAll")
	}

	h.mu.RLock()
	dirty := h.rooms["board_1"].state.Dirty()
	h.mu.RUnlock()
	if dirty {
		t.Fatal("room should be clean after SaveAll")
	}
}
