// Package storage selects and opens a conversation store from a database URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/memory/inmemory"
	"github.com/leofalp/aigochat/providers/memory/pgmemory"
	"github.com/leofalp/aigochat/providers/memory/sqlitememory"
	"github.com/leofalp/aigochat/providers/observability"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ErrUnsupportedURL is returned for a database URL with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

// Location is a parsed database URL.
type Location struct {
	Backend Backend

	// Target is the SQLite file path or the Postgres connection string.
	// It is empty for BackendMemory.
	Target string
}

// ParseURL accepts:
//
//	memory://                      process-local store, lost on exit
//	postgres://... postgresql://...
//	file:chat.db                   SQLite file (query string ignored)
//	sqlite:///./chat.db            SQLite, SQLAlchemy style
//	sqlite:///:memory:             private in-memory SQLite database
//	./chat.db                      bare path, SQLite
func ParseURL(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, hasScheme := strings.Cut(raw, ":")

	switch {
	case raw == "":
		return Location{}, fmt.Errorf("%w: empty", ErrUnsupportedURL)
	case !hasScheme || len(scheme) <= 1:
		// No scheme, ":memory:", or a Windows drive letter.
		return Location{Backend: BackendSQLite, Target: raw}, nil
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return Location{Backend: BackendMemory}, nil
	case "postgres", "postgresql":
		return Location{Backend: BackendPostgres, Target: raw}, nil
	case "sqlite", "sqlite3":
		path, ok := strings.CutPrefix(rest, "///")
		if !ok || path == "" {
			return Location{}, fmt.Errorf("%w: %q (want sqlite:///<path>)", ErrUnsupportedURL, raw)
		}
		return Location{Backend: BackendSQLite, Target: path}, nil
	case "file":
		path, _, _ := strings.Cut(strings.TrimPrefix(rest, "//"), "?")
		if path == "" {
			return Location{}, fmt.Errorf("%w: %q has no path", ErrUnsupportedURL, raw)
		}
		return Location{Backend: BackendSQLite, Target: path}, nil
	}

	if strings.HasPrefix(rest, "//") {
		return Location{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
	}
	// A colon without "//" is part of a relative file name.
	return Location{Backend: BackendSQLite, Target: raw}, nil
}

// Open opens the store for databaseURL. The schema is not migrated.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (memory.Store, error) {
	location, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	var store memory.Store
	switch location.Backend {
	case BackendMemory:
		store = inmemory.New()
	case BackendSQLite:
		store, err = sqlitememory.Open(location.Target, sqlitememory.WithLogger(logger))
	case BackendPostgres:
		store, err = pgmemory.Connect(ctx, location.Target, pgmemory.WithLogger(logger))
	}
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Conversation store opened",
		observability.AttrStoreBackend, string(location.Backend),
	)
	return store, nil
}
