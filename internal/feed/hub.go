// Package feed pushes live dashboard projections to connected widget
// clients over websockets and relays widget selection events between
// them. The feed never mutates engine state; it only forwards.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/polycrisisio/wssi-deck/internal/common"
)

// Event types carried on the feed.
const (
	EventProjection = "projection"
	EventSelection  = "selection"
)

// Event is the wire envelope for every feed message.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope wraps a payload in a typed feed event.
func Envelope(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

// Hub manages connected feed clients and fans messages out to them.
type Hub struct {
	logger *common.Logger

	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub. Run must be started for clients to connect.
func NewHub(logger *common.Logger) *Hub {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until the context is cancelled, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("clients", count).Msg("feed client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug().Int("clients", count).Msg("feed client disconnected")

		case <-ctx.Done():
			return
		}
	}
}

// Register queues a client for registration.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister queues a client for removal.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every connected client. Clients whose
// send buffer is full are skipped rather than blocking the hub.
func (h *Hub) Broadcast(message []byte) {
	h.broadcastExcept(nil, message)
}

func (h *Hub) broadcastExcept(sender *Client, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client == sender {
			continue
		}
		select {
		case client.send <- message:
		default:
		}
	}
}

// BroadcastProjection wraps a view model in a projection event and
// broadcasts it.
func (h *Hub) BroadcastProjection(view any) {
	msg, err := Envelope(EventProjection, view)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode projection event")
		return
	}
	h.Broadcast(msg)
}
