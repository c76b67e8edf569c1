package websocket

import (
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait is time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// pingPeriod is the interval for sending pings (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is maximum message size allowed from peer
	maxMessageSize = 512
)

// Client represents a single WebSocket connection
type Client struct {
	id        string
	topics    []string
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	closed    bool
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewClient creates a new WebSocket client subscribed to topics
func NewClient(conn *websocket.Conn, topics []string, hub *Hub) *Client {
	return &Client{
		id:     uuid.New().String(),
		topics: topics,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 256),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// Topics returns a copy of the topics the client is subscribed to
func (c *Client) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.topics)
}

// Subscription actions a client may send after connecting
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Command is an inbound client message, e.g. {"action":"subscribe","topic":"plan:12"}
type Command struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

var (
	errUnknownAction = errors.New("unknown action")
	errUnknownTopic  = errors.New("unknown topic")
)

// ParseCommand decodes and validates an inbound client message
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, err
	}
	if cmd.Action != ActionSubscribe && cmd.Action != ActionUnsubscribe {
		return cmd, errUnknownAction
	}
	if !ValidTopic(cmd.Topic) {
		return cmd, errUnknownTopic
	}
	return cmd, nil
}

// handleMessage applies a subscription command and acknowledges it to the client
func (c *Client) handleMessage(data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		log.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket command rejected")
		c.reply(SubscriptionRejected(cmd.Topic, err.Error()))
		return
	}

	switch cmd.Action {
	case ActionSubscribe:
		if c.addTopic(cmd.Topic) {
			c.hub.Subscribe(c, cmd.Topic)
		}
		c.reply(Subscribed(cmd.Topic))
	case ActionUnsubscribe:
		if c.removeTopic(cmd.Topic) {
			c.hub.Unsubscribe(c, cmd.Topic)
		}
		c.reply(Unsubscribed(cmd.Topic))
	}
}

func (c *Client) reply(event Event) {
	data, err := event.ToJSON()
	if err != nil {
		return
	}
	if err := c.Send(data); err != nil {
		log.Debug().Err(err).Str("client_id", c.id).Msg("WebSocket reply dropped")
	}
}

func (c *Client) addTopic(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Contains(c.topics, topic) {
		return false
	}
	c.topics = append(c.topics, topic)
	return true
}

func (c *Client) removeTopic(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.topics, topic)
	if i < 0 {
		return false
	}
	c.topics = slices.Delete(c.topics, i, i+1)
	return true
}

// Send queues a message to be sent to the client
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer is full, client is too slow
		return ErrClientClosed
	}
}

// Close closes the client connection
// Safe to call multiple times from different goroutines
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump pumps messages from the WebSocket connection
// This should be run in a goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Msg("WebSocket unexpected close")
			}
			break
		}
		c.handleMessage(data)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
// This should be run in a goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, hub closed this client
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
