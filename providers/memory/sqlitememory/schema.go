package sqlitememory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

const createConversationsSQL = `CREATE TABLE IF NOT EXISTS conversations (
    id         VARCHAR NOT NULL PRIMARY KEY,
    title      VARCHAR NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`

// createMessagesSQL only applies to fresh databases. Tables created before
// conversations existed lack conversation_id; Migrate adds it.
const createMessagesSQL = `CREATE TABLE IF NOT EXISTS messages (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id VARCHAR REFERENCES conversations (id),
    role            VARCHAR NOT NULL,
    content         VARCHAR NOT NULL,
    model           VARCHAR NOT NULL,
    timestamp       DATETIME NOT NULL
)`

const addConversationColumnSQL = `ALTER TABLE messages ADD COLUMN conversation_id VARCHAR`

const createConversationIndexSQL = `CREATE INDEX IF NOT EXISTS idx_messages_conversation_timestamp
    ON messages (conversation_id, timestamp, id)`

const orphanWhere = `conversation_id IS NULL OR conversation_id = ''`

// Migrate creates the schema and adopts orphan messages into
// memory.LegacyConversationID. It runs in a single transaction and is safe
// to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	var adopted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{createConversationsSQL, createMessagesSQL} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}

		hasColumn, err := hasConversationColumn(ctx, tx)
		if err != nil {
			return err
		}
		if !hasColumn {
			s.logger.InfoContext(ctx, "Adding conversation_id column to messages table")
			if _, err := tx.ExecContext(ctx, addConversationColumnSQL); err != nil {
				return fmt.Errorf("add conversation_id column: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, createConversationIndexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}

		adopted, err = adoptOrphans(ctx, tx)
		if err != nil {
			return err
		}
		return refreshLegacyConversation(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("sqlitememory: migrate: %w", err)
	}

	if adopted > 0 {
		s.logger.InfoContext(ctx, "Adopted legacy messages",
			observability.AttrStoreBackend, "sqlite",
			observability.AttrStoreMigratedRows, adopted,
			observability.AttrChatConversationID, memory.LegacyConversationID,
		)
	}
	return nil
}

func hasConversationColumn(ctx context.Context, tx *sql.Tx) (bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info('messages')`)
	if err != nil {
		return false, fmt.Errorf("inspect messages table: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("inspect messages table: %w", err)
		}
		if name == "conversation_id" {
			found = true
		}
	}
	return found, rows.Err()
}

// adoptOrphans materializes the legacy conversation from the earliest and
// latest orphan timestamps, then reparents the orphans to it.
func adoptOrphans(ctx context.Context, tx *sql.Tx) (int64, error) {
	var (
		count         int64
		first, latest dbTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(timestamp), MAX(timestamp) FROM messages WHERE `+orphanWhere,
	).Scan(&count, &first, &latest)
	if err != nil {
		return 0, fmt.Errorf("count orphan messages: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		memory.LegacyConversationID, memory.LegacyConversationTitle, first, latest,
	)
	if err != nil {
		return 0, fmt.Errorf("create legacy conversation: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE messages SET conversation_id = ? WHERE `+orphanWhere,
		memory.LegacyConversationID,
	)
	if err != nil {
		return 0, fmt.Errorf("adopt orphan messages: %w", err)
	}
	return res.RowsAffected()
}

// refreshLegacyConversation moves the legacy conversation's updated_at to
// its latest message, never earlier than created_at.
func refreshLegacyConversation(ctx context.Context, tx *sql.Tx) error {
	var latest dbTime
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(timestamp) FROM messages WHERE conversation_id = ?`,
		memory.LegacyConversationID,
	).Scan(&latest)
	if err != nil {
		return fmt.Errorf("read legacy timestamps: %w", err)
	}
	if !latest.Valid {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = MAX(created_at, ?) WHERE id = ?`,
		latest, memory.LegacyConversationID,
	)
	if err != nil {
		return fmt.Errorf("refresh legacy conversation: %w", err)
	}
	return nil
}
