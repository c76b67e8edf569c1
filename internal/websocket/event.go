package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeUpdated  EventType = "updated"
	EventTypeDeleted  EventType = "deleted"
	EventTypeRecorded EventType = "recorded"

	EventTypeSubscribed   EventType = "subscribed"
	EventTypeUnsubscribed EventType = "unsubscribed"
	EventTypeRejected     EventType = "rejected"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypePayment EntityType = "payment"
	EntityTypePlan    EntityType = "plan"
	EntityTypeRikshaw EntityType = "rikshaw"

	// EntityTypeSubscription events are replies to a client's own commands
	EntityTypeSubscription EntityType = "subscription"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment.recorded"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentRecorded creates a payment.recorded event
func PaymentRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypePayment, payload)
}

// PaymentUpdated creates a payment.updated event
func PaymentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePayment, payload)
}

// PaymentDeleted creates a payment.deleted event
func PaymentDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypePayment, payload)
}

// PlanCreated creates a plan.created event
func PlanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePlan, payload)
}

// PlanUpdated creates a plan.updated event
func PlanUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePlan, payload)
}

// RikshawUpdated creates a rikshaw.updated event
func RikshawUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeRikshaw, payload)
}

// RikshawDeleted creates a rikshaw.deleted event
func RikshawDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeRikshaw, payload)
}

// SubscriptionPayload is the body of subscription replies
type SubscriptionPayload struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason,omitempty"`
}

// Subscribed creates a subscription.subscribed reply
func Subscribed(topic string) Event {
	return NewEvent(EventTypeSubscribed, EntityTypeSubscription, SubscriptionPayload{Topic: topic})
}

// Unsubscribed creates a subscription.unsubscribed reply
func Unsubscribed(topic string) Event {
	return NewEvent(EventTypeUnsubscribed, EntityTypeSubscription, SubscriptionPayload{Topic: topic})
}

// SubscriptionRejected creates a subscription.rejected reply
func SubscriptionRejected(topic, reason string) Event {
	return NewEvent(EventTypeRejected, EntityTypeSubscription, SubscriptionPayload{Topic: topic, Reason: reason})
}
