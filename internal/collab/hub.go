package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/laminahq/lamina/backend-go/internal/document"
	"github.com/laminahq/lamina/backend-go/internal/typeid"
)

// DocumentLoader fetches the latest persisted document for a project.
type DocumentLoader func(projectID string) (*document.Document, error)

// DocumentSaver persists a document snapshot together with the server
// sequence it reflects.
type DocumentSaver func(projectID string, doc []byte, seq int64) error

// Room groups the clients editing one project around a shared authoritative
// document.
type Room struct {
	projectID string
	clients   map[string]*Client
	presence  *PresenceManager
	state     *DocumentState

	// lastSaved is the server sequence covered by the most recent save.
	lastSaved int64
}

// Hub routes messages between clients and owns the per-project rooms. Rooms
// are created when the first client joins and torn down (after a save) when
// the last one leaves.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}

	loader       DocumentLoader
	saver        DocumentSaver
	saveInterval time.Duration
}

func NewHub(loader DocumentLoader, saver DocumentSaver, saveInterval time.Duration) *Hub {
	if saveInterval <= 0 {
		saveInterval = time.Minute
	}
	return &Hub{
		rooms:        make(map[string]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		loader:       loader,
		saver:        saver,
		saveInterval: saveInterval,
	}
}

// Run processes registrations and periodic saves until Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveDirtyRooms()
		case <-h.stop:
			h.saveDirtyRooms()
			close(h.done)
			return
		}
	}
}

// Stop shuts the hub down after a final save of every dirty room.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

// Register hands a new client to the hub goroutine.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	doc := h.loadDocument(client.ProjectID)

	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		room = &Room{
			projectID: client.ProjectID,
			clients:   make(map[string]*Client),
			presence:  NewPresenceManager(),
			state:     NewDocumentState(doc),
		}
		h.rooms[client.ProjectID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, err := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		ServerSeq: room.state.ServerSeq(),
	})
	if err == nil {
		client.Send(&Message{Type: TypeWelcome, ProjectID: client.ProjectID, Payload: welcome})
	}

	h.sendDocSync(client, room)

	if state := room.presence.StateMessage(); state != nil {
		client.Send(state)
	}

	join, err := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		h.broadcast(room, &Message{
			Type:      TypePresenceJoin,
			ProjectID: client.ProjectID,
			ClientID:  client.ClientID,
			UserID:    client.UserID,
			Payload:   join,
		}, client.ClientID)
	}

	slog.Info("client joined", "project", client.ProjectID, "user", client.UserID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
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
	room.presence.Remove(client.ClientID)
	emptied := len(room.clients) == 0
	if emptied {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	if emptied {
		h.saveRoom(room)
	} else {
		leave, err := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		if err == nil {
			h.broadcast(room, &Message{
				Type:      TypePresenceLeave,
				ProjectID: client.ProjectID,
				ClientID:  client.ClientID,
				UserID:    client.UserID,
				Payload:   leave,
			}, client.ClientID)
		}
	}

	slog.Info("client left", "project", client.ProjectID, "user", client.UserID, "client", client.ClientID)
}

// loadDocument fetches the project's document, falling back to the sample
// document when no loader is configured or loading fails.
func (h *Hub) loadDocument(projectID string) *document.Document {
	if h.loader != nil {
		doc, err := h.loader(projectID)
		if err == nil && doc != nil {
			return doc
		}
		if err != nil {
			slog.Warn("load document failed, starting from sample", "project", projectID, "error", err)
		}
	}
	return document.NewSampleDocument(projectID)
}

func (h *Hub) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(client, msg)
	case TypeOpSubmit:
		h.handleOperation(client, msg)
	case TypeDocSync:
		h.handleDocSyncRequest(client)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", client.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(client *Client, msg *Message) {
	var payload PresencePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid presence payload", "error", err, "user", client.UserID)
		return
	}
	if payload.DisplayName == "" {
		payload.DisplayName = client.DisplayName
	}

	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(client.ClientID, &payload)
	h.broadcast(room, msg, client.ClientID)
}

func (h *Hub) handleOperation(client *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.nack(client, "", "invalid operation payload")
		return
	}
	// Every acked and broadcast operation carries a non-empty id.
	if payload.Operation.ID == "" {
		payload.Operation.ID = typeid.NewOpID()
	}

	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()
	if !ok {
		h.nack(client, payload.Operation.ID, "room not found")
		return
	}

	seq, err := room.state.ApplyOperation(payload.Operation)
	if err != nil {
		slog.Warn("operation rejected", "type", payload.Operation.Type, "error", err, "user", client.UserID)
		h.nack(client, payload.Operation.ID, err.Error())
		return
	}

	ack, err := json.Marshal(OperationAckPayload{
		OperationID:     payload.Operation.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	if err == nil {
		client.Send(&Message{Type: TypeOpAck, ProjectID: client.ProjectID, Payload: ack})
	}

	broadcast, err := json.Marshal(OperationBroadcastPayload{
		Operation: payload.Operation,
		UserID:    client.UserID,
		ServerSeq: seq,
	})
	if err == nil {
		h.broadcast(room, &Message{
			Type:      TypeOpBroadcast,
			ProjectID: client.ProjectID,
			ClientID:  client.ClientID,
			UserID:    client.UserID,
			Payload:   broadcast,
		}, client.ClientID)
	}
}

func (h *Hub) handleDocSyncRequest(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.sendDocSync(client, room)
}

func (h *Hub) sendDocSync(client *Client, room *Room) {
	data, seq, err := room.state.Snapshot()
	if err != nil {
		slog.Error("snapshot document", "project", room.projectID, "error", err)
		return
	}
	payload, err := json.Marshal(DocSyncPayload{Document: data, ServerSeq: seq})
	if err != nil {
		slog.Error("marshal doc sync", "project", room.projectID, "error", err)
		return
	}
	client.Send(&Message{Type: TypeDocSync, ProjectID: room.projectID, Payload: payload})
}

func (h *Hub) nack(client *Client, opID, reason string) {
	payload, err := json.Marshal(OperationNackPayload{OperationID: opID, Reason: reason})
	if err != nil {
		return
	}
	client.Send(&Message{Type: TypeOpNack, ProjectID: client.ProjectID, Payload: payload})
}

// broadcast sends msg to every client in the room except the one named by
// exceptClientID.
func (h *Hub) broadcast(room *Room, msg *Message, exceptClientID string) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(room.clients))
	for id, c := range room.clients {
		if id == exceptClientID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(msg)
	}
}

// saveDirtyRooms persists every room whose document advanced past its last
// save. Runs on the hub goroutine.
func (h *Hub) saveDirtyRooms() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) saveRoom(room *Room) {
	if h.saver == nil {
		return
	}
	data, seq, err := room.state.Snapshot()
	if err != nil {
		slog.Error("snapshot for save", "project", room.projectID, "error", err)
		return
	}
	if seq == room.lastSaved {
		return
	}
	if err := h.saver(room.projectID, data, seq); err != nil {
		slog.Error("save document", "project", room.projectID, "error", err)
		return
	}
	room.lastSaved = seq
	slog.Info("document saved", "project", room.projectID, "seq", seq)
}
