// Package backend opens the link repository selected by STORAGE_BACKEND.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	"github.com/IgorGrieder/encurtador-links/internal/storage/memory"
	mongoStorage "github.com/IgorGrieder/encurtador-links/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/encurtador-links/internal/storage/postgres"
	"github.com/IgorGrieder/encurtador-links/internal/storage/postgres/migrations"
	sqliteStorage "github.com/IgorGrieder/encurtador-links/internal/storage/sqlite"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend bundles the opened repository with its health check and cleanup.
// Pinger is nil for the in-memory store.
type Backend struct {
	Name   string
	Repo   links.LinkRepository
	Pinger Pinger
	close  func()
}

func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var (
		b   *Backend
		err error
	)

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		b = &Backend{Repo: memory.NewLinkRepository()}
	case config.BackendPostgres:
		b, err = openPostgres(ctx, cfg)
	case config.BackendMongo:
		b, err = openMongo(ctx, cfg)
	case config.BackendSQLite:
		b, err = openSQLite(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	b.Name = cfg.Storage.Backend
	logger.Info("Storage backend selected", zap.String("backend", b.Name))
	return b, nil
}

// Migrate applies the postgres schema. It is a no-op for other backends,
// which create their schema when the repository is opened.
func Migrate(cfg *config.Config) error {
	if cfg.Storage.Backend != config.BackendPostgres {
		return nil
	}

	m, err := migrations.New(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return m.Up()
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg.Postgres.AutoMigrate {
		if err := Migrate(cfg); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}

	pgConn, err := db.ConnectPostgres(ctx, cfg.Postgres.DSN, db.PoolOptions{
		MaxConns:        int32(cfg.Postgres.MaxConns),
		MinConns:        int32(cfg.Postgres.MinConns),
		MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		PingTimeout:     cfg.Storage.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	repo, err := postgresStorage.NewLinksRepository(pgConn)
	if err != nil {
		pgConn.Close()
		return nil, fmt.Errorf("init postgres links repository: %w", err)
	}

	return &Backend{Repo: repo, Pinger: pgConn, close: pgConn.Close}, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Backend, error) {
	mongoConn, err := db.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, db.MongoOptions{
		AppName:        cfg.App.Name,
		ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		MaxPoolSize:    uint64(cfg.MongoDB.MaxPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	repo, err := mongoStorage.NewLinksRepository(mongoConn)
	if err != nil {
		_ = mongoConn.Disconnect()
		return nil, fmt.Errorf("init mongo links repository: %w", err)
	}

	return &Backend{
		Repo:   repo,
		Pinger: mongoConn,
		close: func() {
			if err := mongoConn.Disconnect(); err != nil {
				logger.Warn("Failed to disconnect from MongoDB", zap.Error(err))
			}
		},
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config) (*Backend, error) {
	conn, err := db.OpenSQLite(ctx, cfg.SQLite.URL)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	repo, err := sqliteStorage.NewLinksRepository(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init sqlite links repository: %w", err)
	}

	return &Backend{
		Repo:   repo,
		Pinger: conn,
		close: func() {
			if err := conn.Close(); err != nil {
				logger.Warn("Failed to close SQLite", zap.Error(err))
			}
		},
	}, nil
}
