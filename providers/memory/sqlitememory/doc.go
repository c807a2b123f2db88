// Package sqlitememory provides a SQLite-backed implementation of the
// [memory.Store] interface using the pure-Go modernc.org/sqlite driver.
//
// The schema is compatible with databases created by earlier releases of
// the chat backend: timestamps are stored as UTC text in the
// "2006-01-02 15:04:05.000000" layout and [Store.Migrate] upgrades message
// tables that predate conversations. SQLite allows a single writer, so the
// store keeps exactly one open connection and serializes access through it.
//
// The main entry point is [Open].
package sqlitememory
