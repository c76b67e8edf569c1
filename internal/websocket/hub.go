package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	Topics() []string
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by topic.
// A client subscribed to several topics is registered under each of them.
// It is safe for concurrent use
type Hub struct {
	// topics maps topic to a map of client ID to client
	topics map[string]map[string]ClientInterface
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under each of its topics
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range client.Topics() {
		h.add(topic, client)
	}

	log.Debug().
		Strs("topics", client.Topics()).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client from every topic it was registered under
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for _, topic := range client.Topics() {
		if h.remove(topic, client.ID()) {
			removed = true
		}
	}

	if removed {
		log.Debug().
			Strs("topics", client.Topics()).
			Str("client_id", client.ID()).
			Msg("WebSocket client unregistered")
	}
}

// Subscribe adds an already registered client to one more topic
func (h *Hub) Subscribe(client ClientInterface, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.add(topic, client)
}

// Unsubscribe removes a client from a single topic
func (h *Hub) Unsubscribe(client ClientInterface, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(topic, client.ID())
}

// add and remove expect h.mu to be held
func (h *Hub) add(topic string, client ClientInterface) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]ClientInterface)
	}
	h.topics[topic][client.ID()] = client
}

func (h *Hub) remove(topic, clientID string) bool {
	clients, ok := h.topics[topic]
	if !ok {
		return false
	}
	_, exists := clients[clientID]
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.topics, topic)
	}
	return exists
}

// Broadcast sends an event to all clients subscribed to topic
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.topics[topic]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("topic", topic).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("topic", topic).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients subscribed to a topic
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.topics[topic]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the number of distinct connected clients
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, clients := range h.topics {
		for id := range clients {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
