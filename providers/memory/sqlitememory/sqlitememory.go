package sqlitememory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// pragmas are carried in the DSN so the driver runs them on every new
// connection, not only the first one.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + url.Values{"_pragma": pragmas}.Encode()
}

// Store implements [memory.Store] on top of a SQLite database file.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Compile-time check: Store must implement memory.Store.
var _ memory.Store = (*Store)(nil)

// Option configures optional Store behavior.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for migration and write diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (creating if needed) the database at path and configures it
// for a single writer. Use MemoryPath for a throwaway database. The schema is
// not touched until Migrate is called.
func Open(path string, opts ...Option) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitememory: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlitememory: open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// exists only as long as its connection does.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitememory: connect: %w", err)
	}

	s := &Store{
		db:     db,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) CreateConversation(ctx context.Context, title string) (*memory.Conversation, error) {
	if title == "" {
		title = memory.DefaultConversationTitle
	}
	now := s.timestamp()
	conversation := &memory.Conversation{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		conversation.ID, conversation.Title, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitememory: create conversation: %w", err)
	}

	recordEvent(ctx, observability.EventConversationCreated, conversation.ID)
	return conversation, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*memory.Conversation, error) {
	conversation, err := getConversation(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("sqlitememory: get conversation: %w", err)
	}
	return conversation, nil
}

// EnsureConversation relies on the primary key to absorb concurrent inserts.
func (s *Store) EnsureConversation(ctx context.Context, id string) (*memory.Conversation, error) {
	var conversation *memory.Conversation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertConversationIfMissing(ctx, tx, id, s.timestamp()); err != nil {
			return err
		}
		var err error
		conversation, err = getConversation(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitememory: ensure conversation: %w", err)
	}
	return conversation, nil
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

func (s *Store) save(ctx context.Context, messages ...memory.NewMessage) ([]memory.StoredMessage, error) {
	for _, message := range messages {
		if err := message.Validate(); err != nil {
			return nil, err
		}
	}

	saved := make([]memory.StoredMessage, 0, len(messages))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, message := range messages {
			stored, err := s.insertMessage(ctx, tx, message)
			if err != nil {
				return err
			}
			saved = append(saved, *stored)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "sqlitememory: failed to save messages", "count", len(messages), "error", err)
		return nil, fmt.Errorf("sqlitememory: save messages: %w", err)
	}

	for _, message := range saved {
		s.logger.DebugContext(ctx, "Message saved",
			observability.AttrStoreMessageID, message.ID,
			observability.AttrChatConversationID, message.ConversationID,
			"role", message.Role,
			observability.AttrLLMModel, message.Model,
		)
		recordEvent(ctx, observability.EventMessageSaved, message.ConversationID)
	}
	return saved, nil
}

func (s *Store) insertMessage(ctx context.Context, tx *sql.Tx, message memory.NewMessage) (*memory.StoredMessage, error) {
	now := s.timestamp()
	if err := insertConversationIfMissing(ctx, tx, message.ConversationID, now); err != nil {
		return nil, err
	}

	// The single connection serializes writers, so updated_at cannot move
	// between this read and the bump below.
	var latest dbTime
	if err := tx.QueryRowContext(ctx,
		`SELECT updated_at FROM conversations WHERE id = ?`, message.ConversationID,
	).Scan(&latest); err != nil {
		return nil, fmt.Errorf("read updated_at: %w", err)
	}
	now = memory.NotBefore(now, latest.Time)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, model, timestamp) VALUES (?, ?, ?, ?, ?)`,
		message.ConversationID, string(message.Role), message.Content, message.Model, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		formatTime(now), message.ConversationID,
	); err != nil {
		return nil, fmt.Errorf("bump updated_at: %w", err)
	}

	if message.Role == ai.RoleUser {
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET title = ? WHERE id = ? AND title = ?`,
			memory.DeriveTitle(message.Content), message.ConversationID, memory.DefaultConversationTitle,
		); err != nil {
			return nil, fmt.Errorf("derive title: %w", err)
		}
	}

	return &memory.StoredMessage{
		ID:             id,
		ConversationID: message.ConversationID,
		Role:           message.Role,
		Content:        message.Content,
		Model:          message.Model,
		Timestamp:      now,
	}, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]memory.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, model, timestamp
		 FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitememory: list messages: %w", err)
	}
	defer rows.Close()

	messages := []memory.StoredMessage{}
	for rows.Next() {
		var (
			message   memory.StoredMessage
			owner     sql.NullString
			role      string
			timestamp dbTime
		)
		if err := rows.Scan(&message.ID, &owner, &role, &message.Content, &message.Model, &timestamp); err != nil {
			return nil, fmt.Errorf("sqlitememory: scan message: %w", err)
		}
		message.ConversationID = conversationID
		if owner.Valid && owner.String != "" {
			message.ConversationID = owner.String
		}
		message.Role = ai.Role(role)
		message.Timestamp = timestamp.Time
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitememory: list messages: %w", err)
	}
	return messages, nil
}

func (s *Store) ConversationSummaries(ctx context.Context) ([]memory.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.title, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
		COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id
			ORDER BY m.timestamp DESC, m.id DESC LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlitememory: conversation summaries: %w", err)
	}
	defer rows.Close()

	summaries := []memory.ConversationSummary{}
	for rows.Next() {
		var (
			summary            memory.ConversationSummary
			createdAt, updated dbTime
			last               string
		)
		if err := rows.Scan(&summary.ID, &summary.Title, &createdAt, &updated, &summary.MessageCount, &last); err != nil {
			return nil, fmt.Errorf("sqlitememory: scan summary: %w", err)
		}
		summary.CreatedAt = createdAt.Time
		summary.UpdatedAt = updated.Time
		summary.LastMessagePreview = memory.Preview(last)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitememory: conversation summaries: %w", err)
	}
	return summaries, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Unknown conversation: leave any orphan rows sharing the id alone.
			return errNothingDeleted
		}
		deleted = true
		return nil
	})
	if errors.Is(err, errNothingDeleted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlitememory: delete conversation: %w", err)
	}

	recordEvent(ctx, observability.EventConversationDeleted, id)
	return deleted, nil
}

// errNothingDeleted rolls back a delete that targeted an unknown conversation.
var errNothingDeleted = errors.New("nothing deleted")

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getConversation(ctx context.Context, q queryer, id string) (*memory.Conversation, error) {
	var (
		conversation       memory.Conversation
		createdAt, updated dbTime
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&conversation.ID, &conversation.Title, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memory.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	conversation.CreatedAt = createdAt.Time
	conversation.UpdatedAt = updated.Time
	return &conversation, nil
}

func insertConversationIfMissing(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		id, memory.DefaultConversationTitle, formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func recordEvent(ctx context.Context, name, conversationID string) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(name, observability.String(observability.AttrChatConversationID, conversationID))
	}
}
