// Package memorytest provides a behavioural test suite shared by every
// [memory.Store] backend.
package memorytest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
)

// Factory returns a fresh, migrated store whose timestamps come from now.
// The factory is responsible for registering cleanup with t.
type Factory func(t *testing.T, now func() time.Time) memory.Store

// Clock is a deterministic clock that advances by Step on every call.
type Clock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

// NewClock returns a clock starting at start that advances by one millisecond per reading.
func NewClock(start time.Time) *Clock {
	return &Clock{t: start.UTC(), Step: time.Millisecond}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.Step)
	return now
}

// Run executes the suite against stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, store memory.Store, clock *Clock)
	}{
		{"SaveMessage_RoundTrip", testRoundTrip},
		{"ListMessages_PreservesSaveOrder", testOrder},
		{"SaveMessage_DerivesTitleOnce", testTitle},
		{"SaveMessage_BlankContentKeepsPlaceholder", testBlankTitle},
		{"SaveMessage_CreatesMissingConversation", testAutoCreate},
		{"SaveMessage_RejectsInvalid", testInvalid},
		{"SaveMessage_BumpsUpdatedAt", testUpdatedAt},
		{"SaveMessage_ClockStepsBack", testClockStepsBack},
		{"CreateConversation", testCreate},
		{"GetConversation_NotFound", testNotFound},
		{"EnsureConversation_Idempotent", testEnsure},
		{"EnsureConversation_Concurrent", testEnsureConcurrent},
		{"SaveTurn_WritesUserThenAssistant", testSaveTurn},
		{"SaveTurn_InvalidWritesNothing", testSaveTurnInvalid},
		{"ConversationSummaries", testSummaries},
		{"DeleteConversation_Cascades", testDelete},
		{"Migrate_Idempotent", testMigrateTwice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
			store := factory(t, clock.Now)
			tt.fn(t, store, clock)
		})
	}
}

func userMessage(conversationID, content string) memory.NewMessage {
	return memory.NewMessage{ConversationID: conversationID, Role: ai.RoleUser, Content: content, Model: "test-model"}
}

func assistantMessage(conversationID, content string) memory.NewMessage {
	return memory.NewMessage{ConversationID: conversationID, Role: ai.RoleAssistant, Content: content, Model: "test-model"}
}

func testRoundTrip(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()
	before := time.Now()

	saved, err := store.SaveMessage(ctx, memory.NewMessage{
		ConversationID: "c1",
		Role:           ai.RoleAssistant,
		Content:        "multi\nline ✓ content",
		Model:          "gpt-5.2",
	})
	require.NoError(t, err)
	require.Positive(t, saved.ID)
	require.Equal(t, "c1", saved.ConversationID)

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 1)

	got := messages[0]
	require.Equal(t, saved.ID, got.ID)
	require.Equal(t, ai.RoleAssistant, got.Role)
	require.Equal(t, "multi\nline ✓ content", got.Content)
	require.Equal(t, "gpt-5.2", got.Model)
	require.True(t, got.Timestamp.Equal(saved.Timestamp), "timestamp %v != %v", got.Timestamp, saved.Timestamp)

	// The suite clock is fixed in the past; only check that a real timestamp was assigned.
	require.False(t, got.Timestamp.IsZero())
	require.True(t, got.Timestamp.Before(before.Add(time.Second)))
}

func testOrder(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	var want []string
	for i := range 6 {
		msg := userMessage("c1", fmt.Sprintf("message %d", i))
		if i%2 == 1 {
			msg = assistantMessage("c1", fmt.Sprintf("message %d", i))
		}
		_, err := store.SaveMessage(ctx, msg)
		require.NoError(t, err)
		want = append(want, msg.Content)
	}

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, len(want))

	for i, msg := range messages {
		require.Equal(t, want[i], msg.Content)
		if i > 0 {
			require.False(t, msg.Timestamp.Before(messages[i-1].Timestamp))
			require.Greater(t, msg.ID, messages[i-1].ID)
		}
	}
}

func testTitle(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.EnsureConversation(ctx, "c1")
	require.NoError(t, err)

	_, err = store.SaveMessage(ctx, assistantMessage("c1", "assistant text never becomes a title"))
	require.NoError(t, err)
	conversation, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, memory.DefaultConversationTitle, conversation.Title)

	first := "How do I\nreverse a linked list in Go without recursion?"
	_, err = store.SaveMessage(ctx, userMessage("c1", first))
	require.NoError(t, err)
	conversation, err = store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "How do I reverse a linked list in Go wit", conversation.Title)

	_, err = store.SaveMessage(ctx, userMessage("c1", "a different question"))
	require.NoError(t, err)
	conversation, err = store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "How do I reverse a linked list in Go wit", conversation.Title)
}

func testBlankTitle(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.SaveMessage(ctx, userMessage("c1", "  \n "))
	require.NoError(t, err)
	conversation, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, memory.DefaultConversationTitle, conversation.Title)

	_, err = store.SaveMessage(ctx, userMessage("c1", "real question"))
	require.NoError(t, err)
	conversation, err = store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "real question", conversation.Title)
}

func testAutoCreate(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.SaveMessage(ctx, userMessage("fresh", "hello"))
	require.NoError(t, err)

	conversation, err := store.GetConversation(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, "hello", conversation.Title)
}

func testInvalid(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.SaveMessage(ctx, memory.NewMessage{ConversationID: "c1", Role: ai.RoleSystem, Content: "x"})
	require.ErrorIs(t, err, memory.ErrInvalidMessage)

	_, err = store.SaveMessage(ctx, memory.NewMessage{Role: ai.RoleUser, Content: "x"})
	require.ErrorIs(t, err, memory.ErrInvalidMessage)

	_, err = store.GetConversation(ctx, "c1")
	require.ErrorIs(t, err, memory.ErrConversationNotFound)
}

func testUpdatedAt(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	created, err := store.EnsureConversation(ctx, "c1")
	require.NoError(t, err)
	require.False(t, created.UpdatedAt.Before(created.CreatedAt))

	saved, err := store.SaveMessage(ctx, userMessage("c1", "hi"))
	require.NoError(t, err)

	conversation, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.True(t, conversation.CreatedAt.Equal(created.CreatedAt))
	require.True(t, conversation.UpdatedAt.After(created.UpdatedAt))
	require.False(t, conversation.UpdatedAt.Before(saved.Timestamp))
}

func testClockStepsBack(t *testing.T, store memory.Store, clock *Clock) {
	ctx := context.Background()

	first, err := store.SaveMessage(ctx, userMessage("c1", "first"))
	require.NoError(t, err)

	clock.Step = -4 * time.Second
	second, err := store.SaveMessage(ctx, assistantMessage("c1", "second"))
	require.NoError(t, err)
	_, err = store.SaveTurn(ctx, userMessage("c1", "third"), assistantMessage("c1", "fourth"))
	require.NoError(t, err)

	require.False(t, second.Timestamp.Before(first.Timestamp))

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	contents := make([]string, 0, len(messages))
	for i, message := range messages {
		contents = append(contents, message.Content)
		if i > 0 {
			require.False(t, message.Timestamp.Before(messages[i-1].Timestamp))
		}
	}
	require.Equal(t, []string{"first", "second", "third", "fourth"}, contents)

	conversation, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.False(t, conversation.UpdatedAt.Before(conversation.CreatedAt))
	require.False(t, conversation.UpdatedAt.Before(messages[len(messages)-1].Timestamp))
}

func testCreate(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	untitled, err := store.CreateConversation(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, untitled.ID)
	require.Equal(t, memory.DefaultConversationTitle, untitled.Title)
	require.True(t, untitled.CreatedAt.Equal(untitled.UpdatedAt))

	titled, err := store.CreateConversation(ctx, "Trip planning")
	require.NoError(t, err)
	require.NotEqual(t, untitled.ID, titled.ID)

	got, err := store.GetConversation(ctx, titled.ID)
	require.NoError(t, err)
	require.Equal(t, "Trip planning", got.Title)
	require.True(t, got.CreatedAt.Equal(titled.CreatedAt))

	// An explicit title is not the placeholder, so the first user message keeps it.
	_, err = store.SaveMessage(ctx, userMessage(titled.ID, "where should we go?"))
	require.NoError(t, err)
	got, err = store.GetConversation(ctx, titled.ID)
	require.NoError(t, err)
	require.Equal(t, "Trip planning", got.Title)
}

func testNotFound(t *testing.T, store memory.Store, _ *Clock) {
	_, err := store.GetConversation(context.Background(), "missing")
	require.ErrorIs(t, err, memory.ErrConversationNotFound)
}

func testEnsure(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	first, err := store.EnsureConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "c1", first.ID)
	require.Equal(t, memory.DefaultConversationTitle, first.Title)

	second, err := store.EnsureConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))

	summaries, err := store.ConversationSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func testEnsureConcurrent(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.EnsureConversation(ctx, "shared"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	summaries, err := store.ConversationSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "shared", summaries[0].ID)
}

func testSaveTurn(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	saved, err := store.SaveTurn(ctx, userMessage("c1", "hi"), assistantMessage("c1", "Hello"))
	require.NoError(t, err)
	require.Len(t, saved, 2)
	require.Equal(t, ai.RoleUser, saved[0].Role)
	require.Equal(t, ai.RoleAssistant, saved[1].Role)
	require.Greater(t, saved[1].ID, saved[0].ID)

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "hi", messages[0].Content)
	require.Equal(t, "Hello", messages[1].Content)

	conversation, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "hi", conversation.Title)
}

func testSaveTurnInvalid(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.EnsureConversation(ctx, "c1")
	require.NoError(t, err)

	_, err = store.SaveTurn(ctx, userMessage("c1", "hi"), memory.NewMessage{ConversationID: "c1", Role: "tool"})
	require.ErrorIs(t, err, memory.ErrInvalidMessage)

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func testSummaries(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.EnsureConversation(ctx, "empty")
	require.NoError(t, err)
	_, err = store.SaveTurn(ctx, userMessage("older", "first question"), assistantMessage("older", "first answer"))
	require.NoError(t, err)
	long := strings.Repeat("x", 120)
	_, err = store.SaveTurn(ctx, userMessage("newer", "second question"), assistantMessage("newer", long))
	require.NoError(t, err)

	summaries, err := store.ConversationSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	require.Equal(t, "newer", summaries[0].ID)
	require.Equal(t, 2, summaries[0].MessageCount)
	require.Equal(t, strings.Repeat("x", 80), summaries[0].LastMessagePreview)

	require.Equal(t, "older", summaries[1].ID)
	require.Equal(t, "first answer", summaries[1].LastMessagePreview)
	require.Equal(t, "first question", summaries[1].Title)

	require.Equal(t, "empty", summaries[2].ID)
	require.Zero(t, summaries[2].MessageCount)
	require.Empty(t, summaries[2].LastMessagePreview)

	for i := 1; i < len(summaries); i++ {
		require.False(t, summaries[i].UpdatedAt.After(summaries[i-1].UpdatedAt))
	}
}

func testDelete(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.SaveTurn(ctx, userMessage("c1", "hi"), assistantMessage("c1", "hello"))
	require.NoError(t, err)
	_, err = store.SaveTurn(ctx, userMessage("c2", "keep"), assistantMessage("c2", "me"))
	require.NoError(t, err)

	deleted, err := store.DeleteConversation(ctx, "c1")
	require.NoError(t, err)
	require.True(t, deleted)

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, messages)
	_, err = store.GetConversation(ctx, "c1")
	require.True(t, errors.Is(err, memory.ErrConversationNotFound))

	kept, err := store.ListMessages(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, kept, 2)

	deleted, err = store.DeleteConversation(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, deleted)
}

func testMigrateTwice(t *testing.T, store memory.Store, _ *Clock) {
	ctx := context.Background()

	_, err := store.SaveMessage(ctx, userMessage("c1", "hi"))
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	messages, err := store.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 1)

	_, err = store.GetConversation(ctx, memory.LegacyConversationID)
	require.ErrorIs(t, err, memory.ErrConversationNotFound)
}
