// Package chat keeps the conversation with the nutrition assistant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/illegalcall/fitplan/internal/models"
	"github.com/illegalcall/fitplan/internal/planner"
	"github.com/illegalcall/fitplan/internal/session"
	"github.com/illegalcall/fitplan/internal/worker"
)

// ErrEmptyMessage is returned when the text to send is blank.
var ErrEmptyMessage = errors.New("message is empty")

// ErrorReply is appended as the assistant's answer when the service cannot
// be reached.
const ErrorReply = "Sorry, I couldn't reach the assistant right now. Please try again."

func welcomeText(name string) string {
	return fmt.Sprintf("Hi %s! I'm your nutrition assistant. Ask me anything about your plan, or tell me which meal you'd like to change.", name)
}

type Remote interface {
	SendChat(ctx context.Context, userID, message string) (models.ChatReply, error)
}

// PlanRefresher reloads the plan after the assistant changed it.
type PlanRefresher interface {
	RefreshInBackground(ctx context.Context, userID string) *worker.Handle
}

// Conversation is an append-only message log. It is safe for concurrent use.
type Conversation struct {
	remote   Remote
	identity planner.Identity
	plans    PlanRefresher

	mu       sync.Mutex
	messages []models.ChatMessage
}

func New(remote Remote, identity planner.Identity, plans PlanRefresher) *Conversation {
	return &Conversation{remote: remote, identity: identity, plans: plans}
}

// Messages returns a copy of the log in order.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

// Welcome greets the user. It does nothing once the log has any message.
func (c *Conversation) Welcome(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) > 0 {
		return
	}
	c.messages = append(c.messages, newMessage(models.ChatRoleAssistant, welcomeText(name)))
}

// Send appends the user's message, asks the assistant and appends its reply.
// When the reply says the plan changed, the plan is reloaded in the
// background. On failure a fixed apology is appended and the error returned.
func (c *Conversation) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	userID := c.identity.UserID()
	if userID == "" {
		return models.ChatMessage{}, session.ErrNoSession
	}

	c.append(newMessage(models.ChatRoleUser, text))

	reply, err := c.remote.SendChat(ctx, userID, text)
	if err != nil {
		slog.Error("Chat request failed", "userID", userID, "error", err)
		msg := newMessage(models.ChatRoleAssistant, ErrorReply)
		c.append(msg)
		return msg, fmt.Errorf("failed to send chat message: %w", err)
	}

	msg := newMessage(models.ChatRoleAssistant, reply.Message)
	c.append(msg)

	if reply.Intent == models.IntentChangeMeal && c.plans != nil {
		slog.Info("Assistant changed the plan, refreshing", "userID", userID)
		c.plans.RefreshInBackground(ctx, userID)
	}
	return msg, nil
}

// Reset drops the whole log, e.g. on logout.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
}

func (c *Conversation) append(msg models.ChatMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

func newMessage(role models.ChatRole, text string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}
