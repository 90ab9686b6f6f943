package websocket

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"feedback-service-server/metrics"
	"feedback-service-server/models"
)

const broadcastBuffer = 64

// Message is one frame sent to dashboard clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans submission events out to connected admin dashboards
type Hub struct {
	clients map[*Client]bool

	// Broadcast queues messages for every client
	Broadcast chan *Message

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	done chan struct{}
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan *Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done, then disconnects everyone
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.clients[client] = true
			metrics.WebsocketClients.Set(float64(len(h.clients)))
			log.WithField("user_id", client.UserID).Info("🔌 Dashboard client registered")

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				metrics.WebsocketClients.Set(float64(len(h.clients)))
				log.WithField("user_id", client.UserID).Info("🔌 Dashboard client unregistered")
			}

		case message := <-h.Broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("❌ Error marshaling message")
		return
	}

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			log.WithField("user_id", client.UserID).Warn("⚠️ Send buffer full, dropping client")
			close(client.Send)
			delete(h.clients, client)
		}
	}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) closeAll() {
	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
	}
	metrics.WebsocketClients.Set(0)
}

// Publish queues a submission event. Events are dropped when the queue is
// full so that request handlers never block on slow dashboards.
func (h *Hub) Publish(event string, submission models.Submission) {
	message := &Message{Type: event, Data: submission, Timestamp: time.Now()}
	select {
	case h.Broadcast <- message:
	default:
		log.WithFields(log.Fields{"event": event, "id": submission.ID}).Warn("⚠️ Broadcast queue full, event dropped")
	}
}
