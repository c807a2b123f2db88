package pgmemory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

// Querier abstracts the pgx query methods needed by Store.
// Both *pgxpool.Pool and pgx.Tx satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxQuerier extends Querier with transaction support. *pgxpool.Pool
// satisfies this interface but pgx.Tx does not. Every write of the store is
// a transaction, so Store requires a TxQuerier.
type TxQuerier interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements [memory.Store] with PostgreSQL persistence.
// Thread safety is handled by the underlying pgx connection pool; no
// application-level mutex is needed.
type Store struct {
	db     TxQuerier
	pool   *pgxpool.Pool
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

// New creates a store on top of an existing pgx executor (typically
// *pgxpool.Pool). The caller keeps ownership of db; Close is a no-op.
func New(db TxQuerier, opts ...Option) *Store {
	s := &Store{
		db:     db,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a connection pool for connString and returns a store that
// owns it. The pool is verified with a ping before returning.
func Connect(ctx context.Context, connString string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgmemory: ping: %w", err)
	}

	s := New(pool, opts...)
	s.pool = pool
	return s, nil
}

// Close releases the pool opened by Connect.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) CreateConversation(ctx context.Context, title string) (*memory.Conversation, error) {
	if title == "" {
		title = memory.DefaultConversationTitle
	}
	now := s.timestamp()
	conversation := &memory.Conversation{ID: uuid.NewString(), Title: title, CreatedAt: now, UpdatedAt: now}

	_, err := s.db.Exec(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		conversation.ID, conversation.Title, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: create conversation: %w", err)
	}

	recordEvent(ctx, observability.EventConversationCreated, conversation.ID)
	return conversation, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*memory.Conversation, error) {
	conversation, err := getConversation(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: get conversation: %w", err)
	}
	return conversation, nil
}

// EnsureConversation relies on the primary key to absorb concurrent inserts.
func (s *Store) EnsureConversation(ctx context.Context, id string) (*memory.Conversation, error) {
	var conversation *memory.Conversation
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := insertConversationIfMissing(ctx, tx, id, s.timestamp()); err != nil {
			return err
		}
		var err error
		conversation, err = getConversation(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pgmemory: ensure conversation: %w", err)
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
	err := s.withTx(ctx, func(tx pgx.Tx) error {
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
		s.logger.ErrorContext(ctx, "pgmemory: failed to save messages", "count", len(messages), "error", err)
		return nil, fmt.Errorf("pgmemory: save messages: %w", err)
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

func (s *Store) insertMessage(ctx context.Context, tx pgx.Tx, message memory.NewMessage) (*memory.StoredMessage, error) {
	now := s.timestamp()
	if err := insertConversationIfMissing(ctx, tx, message.ConversationID, now); err != nil {
		return nil, err
	}

	// Locking the parent row orders concurrent writers to one conversation.
	var latest time.Time
	if err := tx.QueryRow(ctx,
		`SELECT updated_at FROM conversations WHERE id = $1 FOR UPDATE`, message.ConversationID,
	).Scan(&latest); err != nil {
		return nil, fmt.Errorf("read updated_at: %w", err)
	}
	now = memory.NotBefore(now, latest.UTC())

	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content, model, timestamp)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		message.ConversationID, string(message.Role), message.Content, message.Model, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
		now, message.ConversationID,
	); err != nil {
		return nil, fmt.Errorf("bump updated_at: %w", err)
	}

	if message.Role == ai.RoleUser {
		if _, err := tx.Exec(ctx,
			`UPDATE conversations SET title = $1 WHERE id = $2 AND title = $3`,
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
	rows, err := s.db.Query(ctx,
		`SELECT id, COALESCE(conversation_id, ''), role, content, model, timestamp
		 FROM messages WHERE conversation_id = $1 ORDER BY timestamp ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: list messages: %w", err)
	}
	defer rows.Close()

	messages := []memory.StoredMessage{}
	for rows.Next() {
		var (
			message memory.StoredMessage
			owner   string
			role    string
		)
		if err := rows.Scan(&message.ID, &owner, &role, &message.Content, &message.Model, &message.Timestamp); err != nil {
			return nil, fmt.Errorf("pgmemory: scan row: %w", err)
		}
		message.ConversationID = conversationID
		if owner != "" {
			message.ConversationID = owner
		}
		message.Role = ai.Role(role)
		message.Timestamp = message.Timestamp.UTC()
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmemory: iterate rows: %w", err)
	}
	return messages, nil
}

func (s *Store) ConversationSummaries(ctx context.Context) ([]memory.ConversationSummary, error) {
	rows, err := s.db.Query(ctx, `SELECT c.id, c.title, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
		COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id
			ORDER BY m.timestamp DESC, m.id DESC LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgmemory: conversation summaries: %w", err)
	}
	defer rows.Close()

	summaries := []memory.ConversationSummary{}
	for rows.Next() {
		var (
			summary memory.ConversationSummary
			count   int64
			last    string
		)
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.CreatedAt, &summary.UpdatedAt, &count, &last); err != nil {
			return nil, fmt.Errorf("pgmemory: scan row: %w", err)
		}
		summary.CreatedAt = summary.CreatedAt.UTC()
		summary.UpdatedAt = summary.UpdatedAt.UTC()
		summary.MessageCount = int(count)
		summary.LastMessagePreview = memory.Preview(last)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgmemory: iterate rows: %w", err)
	}
	return summaries, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		// Lock the parent row first so a concurrent save cannot slip a message in.
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM conversations WHERE id = $1 FOR UPDATE`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock conversation: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("pgmemory: delete conversation: %w", err)
	}

	if deleted {
		recordEvent(ctx, observability.EventConversationDeleted, id)
	}
	return deleted, nil
}

func getConversation(ctx context.Context, q Querier, id string) (*memory.Conversation, error) {
	var conversation memory.Conversation
	err := q.QueryRow(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = $1`, id,
	).Scan(&conversation.ID, &conversation.Title, &conversation.CreatedAt, &conversation.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, memory.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	conversation.CreatedAt = conversation.CreatedAt.UTC()
	conversation.UpdatedAt = conversation.UpdatedAt.UTC()
	return &conversation, nil
}

func insertConversationIfMissing(ctx context.Context, q Querier, id string, now time.Time) error {
	_, err := q.Exec(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		id, memory.DefaultConversationTitle, now, now,
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
