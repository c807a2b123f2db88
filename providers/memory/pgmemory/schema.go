package pgmemory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

// createConversationsSQL creates the parent table. Conversation ids are
// supplied by clients or generated as UUID strings, hence TEXT.
const createConversationsSQL = `CREATE TABLE IF NOT EXISTS conversations (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// createMessagesSQL creates the message table. conversation_id is nullable
// so rows imported from older deployments can be adopted by Migrate.
const createMessagesSQL = `CREATE TABLE IF NOT EXISTS messages (
    id              BIGSERIAL PRIMARY KEY,
    conversation_id TEXT REFERENCES conversations (id),
    role            TEXT NOT NULL,
    content         TEXT NOT NULL,
    model           TEXT NOT NULL,
    timestamp       TIMESTAMPTZ NOT NULL
)`

const addConversationColumnSQL = `ALTER TABLE messages ADD COLUMN IF NOT EXISTS conversation_id TEXT`

const createConversationIndexSQL = `CREATE INDEX IF NOT EXISTS idx_messages_conversation_timestamp
    ON messages (conversation_id, timestamp, id)`

const createLegacyConversationSQL = `INSERT INTO conversations (id, title, created_at, updated_at)
    SELECT $1, $2, MIN(timestamp), MAX(timestamp) FROM messages
    WHERE conversation_id IS NULL OR conversation_id = ''
    HAVING COUNT(*) > 0
    ON CONFLICT (id) DO NOTHING`

const adoptOrphansSQL = `UPDATE messages SET conversation_id = $1
    WHERE conversation_id IS NULL OR conversation_id = ''`

const refreshLegacyConversationSQL = `UPDATE conversations c
    SET updated_at = GREATEST(c.created_at, m.latest)
    FROM (SELECT MAX(timestamp) AS latest FROM messages WHERE conversation_id = $1) m
    WHERE c.id = $1 AND m.latest IS NOT NULL`

// Migrate creates the tables and indexes if they do not already exist and
// adopts messages without a conversation into memory.LegacyConversationID.
// Every step runs in one transaction, so a failed migration leaves the
// database untouched.
func (s *Store) Migrate(ctx context.Context) error {
	var adopted int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		steps := []struct {
			name string
			sql  string
		}{
			{"create conversations table", createConversationsSQL},
			{"create messages table", createMessagesSQL},
			{"add conversation_id column", addConversationColumnSQL},
			{"create conversation index", createConversationIndexSQL},
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step.sql); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}

		if _, err := tx.Exec(ctx, createLegacyConversationSQL, memory.LegacyConversationID, memory.LegacyConversationTitle); err != nil {
			return fmt.Errorf("create legacy conversation: %w", err)
		}
		tag, err := tx.Exec(ctx, adoptOrphansSQL, memory.LegacyConversationID)
		if err != nil {
			return fmt.Errorf("adopt orphan messages: %w", err)
		}
		adopted = tag.RowsAffected()

		if _, err := tx.Exec(ctx, refreshLegacyConversationSQL, memory.LegacyConversationID); err != nil {
			return fmt.Errorf("refresh legacy conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pgmemory: migrate: %w", err)
	}

	if adopted > 0 {
		s.logger.InfoContext(ctx, "Adopted legacy messages",
			observability.AttrStoreBackend, "postgres",
			observability.AttrStoreMigratedRows, adopted,
			observability.AttrChatConversationID, memory.LegacyConversationID,
		)
	}
	return nil
}
