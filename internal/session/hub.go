package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/abaj8494/draw/internal/board"
	"github.com/abaj8494/draw/internal/store"
)

// How often dirty boards are mirrored to the local autosave.
const autosaveInterval = 15 * time.Second

// Room groups the clients editing one board with its authoritative
// state.
type Room struct {
	boardID   string
	clients   map[string]*Client          // keyed by client ID
	presences map[string]*PresencePayload // keyed by user ID
	state     *BoardState
}

func NewRoom(boardID string, state *BoardState) *Room {
	return &Room{
		boardID:   boardID,
		clients:   make(map[string]*Client),
		presences: make(map[string]*PresencePayload),
		state:     state,
	}
}

// Hub routes messages between clients and rooms and keeps room state
// mirrored to the autosave directory.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	register   chan *Client
	unregister chan *Client

	store    store.Store
	autosave *store.Autosaver
}

func NewHub(st store.Store, autosave *store.Autosaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      st,
		autosave:   autosave,
	}
}

// Run processes client registration and the autosave tick. It blocks
// and is meant to run in its own goroutine.
func (h *Hub) Run() {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.SaveAll()
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		room = NewRoom(client.BoardID, h.loadState(client.BoardID))
		h.rooms[client.BoardID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Authoritative document first, then who else is here.
	doc, seq, err := room.state.DocumentJSON()
	if err != nil {
		slog.Error("marshal document for welcome", "error", err, "board", client.BoardID)
	} else {
		payload, _ := json.Marshal(WelcomePayload{BoardID: client.BoardID, Document: doc, ServerSeq: seq})
		client.Send(&Message{Type: TypeWelcome, BoardID: client.BoardID, Payload: payload})
	}
	if state := h.presenceState(room); state != nil {
		client.Send(state)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.BoardID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room.clients, client.ClientID)
	close(client.send)
	delete(room.presences, client.UserID)

	var idle *Room
	if len(room.clients) == 0 {
		idle = room
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	if idle != nil {
		h.persistRoom(idle)
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		h.broadcastToRoom(client.BoardID, &Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

// loadState restores a board's latest saved document. An autosave only
// exists when it is newer than the last named save, so it wins when
// present. Failures degrade to an empty board.
func (h *Hub) loadState(boardID string) *BoardState {
	var data json.RawMessage

	if h.store != nil {
		snapshot, _, err := h.store.LatestSnapshot(context.Background(), boardID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("load snapshot", "error", err, "board", boardID)
		}
		data = snapshot
	}
	if h.autosave != nil {
		if saved, err := h.autosave.Load(boardID); err != nil {
			slog.Warn("load autosave", "error", err, "board", boardID)
		} else if saved != nil {
			data = saved
		}
	}

	var doc *board.Document
	if data != nil {
		doc = board.NewDocument()
		if err := json.Unmarshal(data, doc); err != nil {
			slog.Error("decode saved document", "error", err, "board", boardID)
			doc = nil
		}
	}
	return NewBoardState(boardID, doc)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeLaserMove:
		// Ephemeral pointer trail, relay without touching state.
		h.broadcastToRoom(sender.BoardID, msg, sender.ClientID)
	case TypeDocSync:
		h.handleDocSync(sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid operation payload", "error", err, "user", sender.UserID)
		return
	}
	op := payload.Operation

	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	seq, err := room.state.Apply(op)
	if err != nil {
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		sender.Send(&Message{Type: TypeOpNack, BoardID: sender.BoardID, Payload: nack})
		return
	}

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: time.Now().UnixMilli(),
	})
	sender.Send(&Message{Type: TypeOpAck, BoardID: sender.BoardID, Payload: ack})

	bcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypeOpBroadcast,
		BoardID: sender.BoardID,
		Seq:     seq,
		Payload: bcast,
	}, sender.ClientID)
}

func (h *Hub) handleDocSync(sender *Client) {
	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	doc, seq, err := room.state.DocumentJSON()
	if err != nil {
		slog.Error("marshal document for sync", "error", err, "board", sender.BoardID)
		return
	}
	payload, _ := json.Marshal(WelcomePayload{BoardID: sender.BoardID, Document: doc, ServerSeq: seq})
	sender.Send(&Message{Type: TypeDocSync, BoardID: sender.BoardID, Payload: payload})
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err, "user", sender.UserID)
		return
	}
	presence.DisplayName = sender.DisplayName

	h.mu.Lock()
	room, ok := h.rooms[sender.BoardID]
	if ok {
		room.presences[sender.UserID] = &presence
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	out, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: out,
	}, sender.ClientID)
}

func (h *Hub) presenceState(room *Room) *Message {
	h.mu.RLock()
	all := make(map[string]*PresencePayload, len(room.presences))
	for id, p := range room.presences {
		all[id] = p
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}

// broadcastToRoom sends msg to every client in the room except
// excludeClientID.
func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(room.clients))
	for id, c := range room.clients {
		if id == excludeClientID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// Document returns the live document JSON for an open board, so named
// saves capture in-flight edits. ok is false when no room is open.
func (h *Hub) Document(boardID string) (json.RawMessage, bool) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}

	doc, _, err := room.state.DocumentJSON()
	if err != nil {
		slog.Error("marshal live document", "error", err, "board", boardID)
		return nil, false
	}
	return doc, true
}

// SaveAll mirrors every dirty room to the autosave directory. The
// shutdown path calls it once after the listener stops.
func (h *Hub) SaveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.persistRoom(room)
	}
}

func (h *Hub) persistRoom(room *Room) {
	if h.autosave == nil || !room.state.Dirty() {
		return
	}
	doc, _, err := room.state.DocumentJSON()
	if err != nil {
		slog.Error("marshal document for autosave", "error", err, "board", room.boardID)
		return
	}
	room.state.MarkClean()
	h.autosave.Save(room.boardID, doc)
}
