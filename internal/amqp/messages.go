package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
)

// EventGoalCompleted is the type and routing key of a completion event.
const EventGoalCompleted = "goal.completed"

// GoalCompletedMessage is published when a contribution completes a goal.
type GoalCompletedMessage struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	GoalID     string    `json:"goalId"`
	GoalName   string    `json:"goalName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewGoalCompletedMessage builds the message of a completion event.
func NewGoalCompletedMessage(userID string, event goals.CompletionEvent, now time.Time) *GoalCompletedMessage {
	return &GoalCompletedMessage{
		ID:         uuid.NewString(),
		Type:       EventGoalCompleted,
		UserID:     userID,
		GoalID:     event.GoalID,
		GoalName:   event.GoalName,
		OccurredAt: now.UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *GoalCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// GoalCompletedMessageFromJSON decodes a message.
func GoalCompletedMessageFromJSON(data []byte) (*GoalCompletedMessage, error) {
	var msg GoalCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
