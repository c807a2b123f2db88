package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/leofalp/aigochat/providers/memory/inmemory"
	"github.com/leofalp/aigochat/providers/memory/sqlitememory"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want Location
	}{
		{"memory://", Location{Backend: BackendMemory}},
		{"MEMORY:", Location{Backend: BackendMemory}},
		{"postgres://chat:secret@db:5432/chat?sslmode=disable", Location{Backend: BackendPostgres, Target: "postgres://chat:secret@db:5432/chat?sslmode=disable"}},
		{"postgresql://db/chat", Location{Backend: BackendPostgres, Target: "postgresql://db/chat"}},
		{"file:chat.db", Location{Backend: BackendSQLite, Target: "chat.db"}},
		{"file:data/chat.db?cache=shared", Location{Backend: BackendSQLite, Target: "data/chat.db"}},
		{"file:///var/lib/aigochat/chat.db", Location{Backend: BackendSQLite, Target: "/var/lib/aigochat/chat.db"}},
		{"sqlite:///./chat.db", Location{Backend: BackendSQLite, Target: "./chat.db"}},
		{"sqlite:////var/chat.db", Location{Backend: BackendSQLite, Target: "/var/chat.db"}},
		{"sqlite:///:memory:", Location{Backend: BackendSQLite, Target: sqlitememory.MemoryPath}},
		{":memory:", Location{Backend: BackendSQLite, Target: sqlitememory.MemoryPath}},
		{"./chat.db", Location{Backend: BackendSQLite, Target: "./chat.db"}},
		{`C:\data\chat.db`, Location{Backend: BackendSQLite, Target: `C:\data\chat.db`}},
	}

	for _, tt := range tests {
		got, err := ParseURL(tt.raw)
		if err != nil {
			t.Errorf("ParseURL(%q): unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParseURL_Unsupported(t *testing.T) {
	for _, raw := range []string{"", "  ", "mysql://db/chat", "sqlite://chat.db", "file:"} {
		if _, err := ParseURL(raw); !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("ParseURL(%q): expected ErrUnsupportedURL, got %v", raw, err)
		}
	}
}

func TestOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := Open(ctx, "memory://", logger)
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := store.(*inmemory.Store); !ok {
		t.Fatalf("expected *inmemory.Store, got %T", store)
	}

	path := filepath.Join(t.TempDir(), "nested", "chat.db")
	store, err = Open(ctx, "file:"+path, logger)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer store.Close()
	if _, ok := store.(*sqlitememory.Store); !ok {
		t.Fatalf("expected *sqlitememory.Store, got %T", store)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if _, err := Open(ctx, "redis://cache", logger); !errors.Is(err, ErrUnsupportedURL) {
		t.Fatalf("expected ErrUnsupportedURL, got %v", err)
	}
}
