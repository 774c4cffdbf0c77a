package models

import "time"

type ChatRole string

const (
	// ChatRoleUser represents a message typed by the user.
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant represents a message written by the assistant.
	ChatRoleAssistant ChatRole = "assistant"
)

// IntentChangeMeal is returned by the assistant when it modified the plan.
const IntentChangeMeal = "CHANGE_MEAL"

// ChatMessage is one entry of a conversation. Messages are never mutated
// once appended.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
}
