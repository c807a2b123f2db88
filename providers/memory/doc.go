// Package memory defines the Store interface for durable chat history.
//
// A [Store] owns two related collections: conversations and the messages
// they contain. Stores are responsible for title derivation ([DeriveTitle]),
// timestamp bookkeeping (updated_at is bumped on every append) and the
// one-time adoption of legacy messages that predate conversations.
//
// Three interchangeable backends are provided:
//
//   - [github.com/leofalp/aigochat/providers/memory/inmemory]: mutex-guarded maps, for tests.
//   - [github.com/leofalp/aigochat/providers/memory/sqlitememory]: a single SQLite file.
//   - [github.com/leofalp/aigochat/providers/memory/pgmemory]: PostgreSQL through pgx.
package memory
