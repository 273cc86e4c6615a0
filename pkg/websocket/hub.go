package websocket

import (
	"context"
	"encoding/json"
	"time"

	"agencyportal/pkg/logger"
)

// StaffRoom receives events meant for every connected admin.
const StaffRoom = "staff"

// UserRoom is the personal room of a user.
func UserRoom(userID string) string {
	return "user_" + userID
}

type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan *Message
	done       chan struct{}
	logger     *logger.Logger
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run owns all client and room state until ctx is done. It must be called
// once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.deliver:
			h.route(message)
		}
	}
}

// Register hands the client to the hub. It reports false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Deliver queues a message for the sockets connected to this instance.
func (h *Hub) Deliver(message *Message) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	select {
	case h.deliver <- message:
	default:
		h.logger.WithField("type", message.Type).Warn("Realtime queue full, dropping message")
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.joinRoom(client, UserRoom(client.UserID))
	if client.IsStaff {
		h.joinRoom(client, StaffRoom)
	}

	h.logger.WithUserID(client.UserID).Debug("Realtime client registered")

	h.sendToClient(client, &Message{
		Type:      "welcome",
		UserID:    client.UserID,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	h.logger.WithUserID(client.UserID).Debug("Realtime client unregistered")
}

func (h *Hub) route(message *Message) {
	if message.RoomID == "" {
		for client := range h.clients {
			h.sendToClient(client, message)
		}
		return
	}

	for client := range h.rooms[message.RoomID] {
		h.sendToClient(client, message)
	}
}

// sendToClient drops clients that cannot keep up.
func (h *Hub) sendToClient(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode realtime message")
		return
	}

	select {
	case client.send <- data:
	default:
		h.removeClient(client)
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}
