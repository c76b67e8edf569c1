package handler

import (
	"net/http"
	"strings"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rikshawmart/rikshawmart-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// subscriptionTopics collects the topic query values, accepting repeated
// params and comma-separated lists. No topic means the dashboard feed.
func subscriptionTopics(values []string) ([]string, []string) {
	seen := make(map[string]bool)
	var topics, invalid []string
	for _, value := range values {
		for _, topic := range strings.Split(value, ",") {
			topic = strings.TrimSpace(topic)
			if topic == "" || seen[topic] {
				continue
			}
			seen[topic] = true
			if !websocket.ValidTopic(topic) {
				invalid = append(invalid, topic)
				continue
			}
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 && len(invalid) == 0 {
		topics = []string{websocket.TopicDashboard}
	}
	return topics, invalid
}

// HandleWS handles WebSocket connection requests at GET /ws?topic=dashboard&topic=plan:12
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	topics, invalid := subscriptionTopics(c.QueryParams()["topic"])
	if len(invalid) > 0 {
		log.Debug().Strs("topics", invalid).Msg("WebSocket connection rejected: unknown topic")
		errs := make([]ValidationError, len(invalid))
		for i, topic := range invalid {
			errs[i] = ValidationError{Field: "topic", Message: "Unknown topic " + topic}
		}
		return NewValidationError(c, "Invalid subscription topic", errs)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, topics, h.hub)
	h.hub.Register(client)

	log.Info().
		Strs("topics", topics).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
