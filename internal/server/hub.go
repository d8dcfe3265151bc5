package server

import (
	"sync"

	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

// Hub fans catalog notifications out to every connected client.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan protocol.Envelope
}

// NewHub initializes an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan protocol.Envelope)}
}

// Register adds a subscriber channel for the connection.
func (h *Hub) Register(sessionID string, ch chan protocol.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sessionID] = ch
}

// Unregister removes the subscriber if present.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sessionID)
}

// Len reports the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast pushes the envelope to every subscriber. Slow subscribers miss it.
func (h *Hub) Broadcast(env protocol.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- env:
		default:
		}
	}
}
