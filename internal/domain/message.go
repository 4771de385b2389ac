package domain

import (
	"time"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Valid reports whether the role may cross the completion boundary.
func (r Role) Valid() bool {
	return r == RoleAssistant || r == RoleUser
}

type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
)

// Message is one entry of a concierge conversation. Only Status changes
// after creation.
type Message struct {
	ID          string         `json:"id"`
	Role        Role           `json:"role"`
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Status      DeliveryStatus `json:"status,omitempty"`
}

// Turn is the part of a Message that is sent to the language model.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turns strips messages down to role/content pairs.
func Turns(messages []Message) []Turn {
	turns := make([]Turn, len(messages))
	for i, m := range messages {
		turns[i] = Turn{Role: m.Role, Content: m.Content}
	}
	return turns
}
