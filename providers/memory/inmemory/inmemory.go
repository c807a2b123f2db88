package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

// Store is a concurrency-safe, map-backed [memory.Store].
// It uses a single RWMutex so every write is atomic with respect to readers.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*memory.Conversation
	messages      []memory.StoredMessage
	nextID        int64
	now           func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty store ready for immediate use.
func New(opts ...Option) *Store {
	s := &Store{
		conversations: make(map[string]*memory.Conversation),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure Store implements memory.Store at compile time.
var _ memory.Store = (*Store)(nil)

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Migrate is a no-op: an in-memory store never holds legacy rows.
func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) CreateConversation(ctx context.Context, title string) (*memory.Conversation, error) {
	if title == "" {
		title = memory.DefaultConversationTitle
	}
	now := s.timestamp()
	conversation := &memory.Conversation{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.conversations[conversation.ID] = conversation
	s.mu.Unlock()

	recordEvent(ctx, observability.EventConversationCreated, conversation.ID)
	copied := *conversation
	return &copied, nil
}

func (s *Store) GetConversation(_ context.Context, id string) (*memory.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[id]
	if !ok {
		return nil, memory.ErrConversationNotFound
	}
	copied := *conversation
	return &copied, nil
}

func (s *Store) EnsureConversation(_ context.Context, id string) (*memory.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *s.ensureLocked(id)
	return &copied, nil
}

func (s *Store) ensureLocked(id string) *memory.Conversation {
	conversation, ok := s.conversations[id]
	if !ok {
		now := s.timestamp()
		conversation = &memory.Conversation{ID: id, Title: memory.DefaultConversationTitle, CreatedAt: now, UpdatedAt: now}
		s.conversations[id] = conversation
	}
	return conversation
}

func (s *Store) SaveMessage(ctx context.Context, message memory.NewMessage) (*memory.StoredMessage, error) {
	saved, err := s.save(ctx, message)
	if err != nil {
		return nil, err
	}
	return &saved[0], nil
}

func (s *Store) SaveTurn(ctx context.Context, user, assistant memory.NewMessage) ([]memory.StoredMessage, error) {
	return s.save(ctx, user, assistant)
}

// save appends messages in order under one lock acquisition. Nothing is
// written unless every message is valid.
func (s *Store) save(ctx context.Context, messages ...memory.NewMessage) ([]memory.StoredMessage, error) {
	for _, message := range messages {
		if err := message.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]memory.StoredMessage, 0, len(messages))
	for _, message := range messages {
		conversation := s.ensureLocked(message.ConversationID)
		now := memory.NotBefore(s.timestamp(), conversation.UpdatedAt)

		s.nextID++
		stored := memory.StoredMessage{
			ID:             s.nextID,
			ConversationID: message.ConversationID,
			Role:           message.Role,
			Content:        message.Content,
			Model:          message.Model,
			Timestamp:      now,
		}
		s.messages = append(s.messages, stored)
		saved = append(saved, stored)

		conversation.UpdatedAt = now
		if message.Role == ai.RoleUser && conversation.Title == memory.DefaultConversationTitle {
			conversation.Title = memory.DeriveTitle(message.Content)
		}
	}

	for _, message := range saved {
		recordEvent(ctx, observability.EventMessageSaved, message.ConversationID)
	}
	return saved, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]memory.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []memory.StoredMessage
	for _, message := range s.messages {
		if message.ConversationID == conversationID {
			result = append(result, message)
		}
	}
	sortMessages(result)
	return result, nil
}

func (s *Store) ConversationSummaries(context.Context) ([]memory.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byConversation := make(map[string][]memory.StoredMessage, len(s.conversations))
	for _, message := range s.messages {
		byConversation[message.ConversationID] = append(byConversation[message.ConversationID], message)
	}

	summaries := make([]memory.ConversationSummary, 0, len(s.conversations))
	for id, conversation := range s.conversations {
		messages := byConversation[id]
		summary := memory.ConversationSummary{Conversation: *conversation, MessageCount: len(messages)}
		if len(messages) > 0 {
			sortMessages(messages)
			summary.LastMessagePreview = memory.Preview(messages[len(messages)-1].Content)
		}
		summaries = append(summaries, summary)
	}

	slices.SortFunc(summaries, func(a, b memory.ConversationSummary) int {
		return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), cmp.Compare(a.ID, b.ID))
	})
	return summaries, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return false, nil
	}
	delete(s.conversations, id)
	s.messages = slices.DeleteFunc(s.messages, func(m memory.StoredMessage) bool {
		return m.ConversationID == id
	})

	recordEvent(ctx, observability.EventConversationDeleted, id)
	return true, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func sortMessages(messages []memory.StoredMessage) {
	slices.SortStableFunc(messages, func(a, b memory.StoredMessage) int {
		return cmp.Or(a.Timestamp.Compare(b.Timestamp), cmp.Compare(a.ID, b.ID))
	})
}

func recordEvent(ctx context.Context, name, conversationID string) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(name, observability.String(observability.AttrChatConversationID, conversationID))
	}
}
