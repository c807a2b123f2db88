package memory

import (
	"context"
	"errors"
	"time"

	"github.com/leofalp/aigochat/providers/ai"
)

const (
	// DefaultConversationTitle is the placeholder title a conversation keeps
	// until its first user message is saved.
	DefaultConversationTitle = "New Chat"

	// LegacyConversationID is the conversation that adopts messages written
	// before conversations existed.
	LegacyConversationID = "legacy-imported"

	// LegacyConversationTitle is the title of the legacy conversation.
	LegacyConversationTitle = "Imported history"
)

var (
	// ErrConversationNotFound is returned when a lookup targets an unknown conversation id.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidMessage is returned when a message has no conversation id or an unsupported role.
	ErrInvalidMessage = errors.New("invalid message")
)

// Conversation is the parent record of a sequence of stored messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredMessage is an immutable persisted message. ID and Timestamp are
// assigned by the store.
type StoredMessage struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           ai.Role   `json:"role"`
	Content        string    `json:"content"`
	Model          string    `json:"model"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationSummary is a conversation enriched with its message count and a
// preview of the most recent message.
type ConversationSummary struct {
	Conversation
	MessageCount       int    `json:"message_count"`
	LastMessagePreview string `json:"last_message_preview"`
}

// NewMessage is the input of SaveMessage and SaveTurn.
type NewMessage struct {
	ConversationID string
	Role           ai.Role
	Content        string
	Model          string
}

// NotBefore returns now, or floor when the clock reads earlier than floor.
// Stores pass the conversation's updated_at as floor so that message
// timestamps never decrease within a conversation.
func NotBefore(now, floor time.Time) time.Time {
	if now.Before(floor) {
		return floor
	}
	return now
}

// Validate checks that m can be persisted. Only user and assistant messages are stored.
func (m NewMessage) Validate() error {
	if m.ConversationID == "" {
		return errors.Join(ErrInvalidMessage, errors.New("conversation id is required"))
	}
	if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
		return errors.Join(ErrInvalidMessage, errors.New("role must be user or assistant, got "+string(m.Role)))
	}
	return nil
}

// Store is the durable record of conversations and their messages.
//
// Every write is one unit of work: implementations acquire a connection,
// perform the write inside a transaction and release it before returning.
// Read methods return errors so that database-backed implementations can
// surface failures instead of silently swallowing them.
type Store interface {
	// Migrate creates the schema and adopts orphan messages into the legacy conversation.
	Migrate(ctx context.Context) error

	// CreateConversation inserts a new conversation with a generated id.
	// An empty title means DefaultConversationTitle.
	CreateConversation(ctx context.Context, title string) (*Conversation, error)

	// GetConversation returns ErrConversationNotFound for unknown ids.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// EnsureConversation returns the conversation with the given id, creating
	// it with the default title when absent. Concurrent calls never create duplicates.
	EnsureConversation(ctx context.Context, id string) (*Conversation, error)

	// SaveMessage appends one message, bumps the conversation's updated_at and
	// derives the title from the first user message.
	SaveMessage(ctx context.Context, message NewMessage) (*StoredMessage, error)

	// SaveTurn saves a user message and the assistant reply, in that order,
	// in a single transaction.
	SaveTurn(ctx context.Context, user, assistant NewMessage) ([]StoredMessage, error)

	// ListMessages returns the messages of a conversation ordered by timestamp then id.
	ListMessages(ctx context.Context, conversationID string) ([]StoredMessage, error)

	// ConversationSummaries returns every conversation ordered by updated_at descending.
	ConversationSummaries(ctx context.Context) ([]ConversationSummary, error)

	// DeleteConversation removes the conversation and its messages atomically.
	// It reports whether the conversation existed.
	DeleteConversation(ctx context.Context, id string) (bool, error)

	Close() error
}
