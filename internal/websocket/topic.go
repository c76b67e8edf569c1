package websocket

import (
	"fmt"
	"strconv"
	"strings"
)

// TopicDashboard receives every event that changes dashboard figures
const TopicDashboard = "dashboard"

const planTopicPrefix = "plan:"

// PlanTopic returns the topic for events about one plan
func PlanTopic(planID int32) string {
	return fmt.Sprintf("%s%d", planTopicPrefix, planID)
}

// ValidTopic reports whether clients may subscribe to topic
func ValidTopic(topic string) bool {
	if topic == TopicDashboard {
		return true
	}
	rest, ok := strings.CutPrefix(topic, planTopicPrefix)
	if !ok {
		return false
	}
	id, err := strconv.ParseInt(rest, 10, 32)
	return err == nil && id > 0
}
