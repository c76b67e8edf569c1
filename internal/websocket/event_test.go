package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":         1,
		"planId":     7,
		"amountPaid": "35000",
	}

	before := time.Now()
	evt := NewEvent(EventTypeRecorded, EntityTypePayment, payload)
	after := time.Now()

	assert.Equal(t, "payment.recorded", evt.Type)
	assert.Equal(t, EntityTypePayment, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_ToJSON(t *testing.T) {
	evt := NewEvent(EventTypeUpdated, EntityTypePlan, map[string]interface{}{"id": float64(42)})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "plan.updated", decoded["type"])
	assert.Equal(t, "plan", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"id": float64(1)}

	tests := []struct {
		name     string
		evt      Event
		expected string
		entity   EntityType
	}{
		{"PaymentRecorded", PaymentRecorded(payload), "payment.recorded", EntityTypePayment},
		{"PaymentUpdated", PaymentUpdated(payload), "payment.updated", EntityTypePayment},
		{"PaymentDeleted", PaymentDeleted(payload), "payment.deleted", EntityTypePayment},
		{"PlanCreated", PlanCreated(payload), "plan.created", EntityTypePlan},
		{"PlanUpdated", PlanUpdated(payload), "plan.updated", EntityTypePlan},
		{"RikshawUpdated", RikshawUpdated(payload), "rikshaw.updated", EntityTypeRikshaw},
		{"RikshawDeleted", RikshawDeleted(payload), "rikshaw.deleted", EntityTypeRikshaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
			assert.Equal(t, payload, tt.evt.Payload)
		})
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "plan:12", PlanTopic(12))

	tests := []struct {
		topic string
		valid bool
	}{
		{"dashboard", true},
		{"plan:1", true},
		{"plan:0", false},
		{"plan:-3", false},
		{"plan:abc", false},
		{"plan:", false},
		{"workspace:1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidTopic(tt.topic))
		})
	}
}
