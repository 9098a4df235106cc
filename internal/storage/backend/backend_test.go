package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/storage/memory"
	sqliteStorage "github.com/IgorGrieder/encurtador-links/internal/storage/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}

	b, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, ok := b.Repo.(*memory.LinkRepository); !ok {
		t.Errorf("got repo %T, want *memory.LinkRepository", b.Repo)
	}
	if b.Pinger != nil {
		t.Error("memory backend should not expose a pinger")
	}
	if b.Name != config.BackendMemory {
		t.Errorf("got name %q", b.Name)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendSQLite},
		SQLite:  config.SQLiteConfig{URL: filepath.Join(t.TempDir(), "links.db")},
	}

	b, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, ok := b.Repo.(*sqliteStorage.LinksRepository); !ok {
		t.Errorf("got repo %T, want *sqlite.LinksRepository", b.Repo)
	}
	if err := b.Pinger.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "cassandra"}}

	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestMigrate_SkipsNonPostgres(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendSQLite}}

	if err := Migrate(cfg); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestBackend_CloseNil(t *testing.T) {
	var b *Backend
	b.Close()
}
