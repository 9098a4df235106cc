package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	"github.com/IgorGrieder/encurtador-links/internal/storage/postgres/migrations"
	"github.com/IgorGrieder/encurtador-links/internal/storage/storagetest"
)

func setupPostgres(t *testing.T) *db.Postgres {
	t.Helper()

	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run postgres integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("links"),
		tcpostgres.WithUsername("links"),
		tcpostgres.WithPassword("links"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	m, err := migrations.New(dsn)
	if err != nil {
		t.Fatalf("failed to create migrator: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	_ = m.Close()

	pg, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pg.Close)

	return pg
}

func TestLinksRepository_Integration(t *testing.T) {
	pg := setupPostgres(t)

	storagetest.RunLinkRepository(t, func(t *testing.T) links.LinkRepository {
		if _, err := pg.Pool.Exec(context.Background(), `TRUNCATE TABLE links CASCADE`); err != nil {
			t.Fatalf("failed to truncate links: %v", err)
		}
		repo, err := NewLinksRepository(pg)
		if err != nil {
			t.Fatal(err)
		}
		return repo
	})
}

func TestNewLinksRepository_NilPool(t *testing.T) {
	if _, err := NewLinksRepository(nil); err == nil {
		t.Error("expected error for nil postgres")
	}
	if _, err := NewLinksRepository(&db.Postgres{}); err == nil {
		t.Error("expected error for nil pool")
	}
}
