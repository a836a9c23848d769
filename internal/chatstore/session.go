package chatstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatSession is one persisted conversation
type ChatSession struct {
	ChatID    string    `json:"chat_id" yaml:"chat_id"`
	ChatName  string    `json:"chat_name" yaml:"chat_name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Messages  []Message `json:"messages" yaml:"messages"`
}

// Message is a single chat turn
type Message struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Summary is the sidebar view of a session
type Summary struct {
	ChatID       string
	ChatName     string
	UpdatedAt    time.Time
	MessageCount int
}

// NewSession creates a session with a fresh chat_id. An empty name is
// replaced by a label derived from the creation time.
func NewSession(name string, now time.Time) *ChatSession {
	now = now.UTC()
	if strings.TrimSpace(name) == "" {
		name = DefaultName(now)
	}
	return &ChatSession{
		ChatID:    uuid.NewString(),
		ChatName:  name,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
}

// DefaultName labels an unnamed chat by its creation time
func DefaultName(t time.Time) string {
	return fmt.Sprintf("Chat %s", FormatStamp(t))
}

// FormatStamp renders the "14-Oct-2026 @ 03:04 PM" suffix used in chat names
func FormatStamp(t time.Time) string {
	return t.Format("02-Jan-2006") + " @ " + t.Format("03:04 PM")
}

// AppendMessage adds a turn and bumps UpdatedAt
func (s *ChatSession) AppendMessage(role, content string, now time.Time) error {
	if !ValidRole(role) {
		return fmt.Errorf("invalid message role %q", role)
	}
	now = now.UTC()
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: now})
	s.UpdatedAt = now
	return nil
}

// Rename changes the human-readable label
func (s *ChatSession) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("chat name must not be empty")
	}
	s.ChatName = name
	s.UpdatedAt = now.UTC()
	return nil
}

// Summary returns the list view of the session
func (s *ChatSession) Summary() Summary {
	return Summary{
		ChatID:       s.ChatID,
		ChatName:     s.ChatName,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
	}
}

// ValidRole reports whether role is one of the current-schema roles
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ValidateID rejects identifiers that cannot map to a single file name
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("chat id must not be empty")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("invalid chat id %q", id)
	}
	return nil
}
