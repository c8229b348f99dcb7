package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub tracks connected watchers and the rooms they subscribe to. Every user
// gets a personal room; each live tracking session gets one shared room.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true

	// Personal room for user-directed notifications
	h.joinRoom(client, userRoom(client.UserID))

	h.sendToClient(client, Message{
		Type:      "connected",
		UserID:    client.UserID,
		Timestamp: getCurrentTimestamp(),
		Data:      map[string]interface{}{},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for roomID, room := range h.rooms {
			if _, exists := room[client]; exists {
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, roomID)
				}
			}
		}
	}
}

func (h *Hub) sendToRoom(roomID string, message Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling room message: %v", err)
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			// Slow consumer, drop the connection
			close(client.send)
			delete(h.clients, client)
			delete(room, client)
		}
	}
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) SendToUser(userID primitive.ObjectID, message Message) {
	h.sendToRoom(userRoom(userID), message)
}

// SendSessionUpdate pushes a message to every watcher of a live tracking
// session.
func (h *Hub) SendSessionUpdate(sessionID string, message Message) {
	h.sendToRoom(sessionRoom(sessionID), message)
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// JoinSession subscribes a client to live updates for a tracking session.
func (h *Hub) JoinSession(client *Client, sessionID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.joinRoom(client, sessionRoom(sessionID))
}

func sessionRoom(sessionID string) string {
	return "session_" + sessionID
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}

func userRoom(userID primitive.ObjectID) string {
	return "user_" + userID.Hex()
}
