package chat

import "time"

// Role tells who spoke a message. It follows from the message position in a
// log: even indices are the user, odd indices the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RoleAt returns the role of the message stored at index i.
func RoleAt(i int) Role {
	if i%2 == 0 {
		return RoleUser
	}
	return RoleAssistant
}

// Message is one immutable utterance of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
