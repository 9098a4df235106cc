package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
)

type SQLite struct {
	DB     *sql.DB
	Driver string
}

// SQLiteDriver picks the libsql driver for remote Turso URLs and the
// pure-Go sqlite driver for local files.
func SQLiteDriver(url string) string {
	if strings.HasPrefix(url, "libsql://") || strings.HasPrefix(url, "wss://") || strings.HasPrefix(url, "https://") {
		return "libsql"
	}
	return "sqlite"
}

func OpenSQLite(ctx context.Context, url string) (*SQLite, error) {
	driver := SQLiteDriver(url)

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)

		for _, pragma := range []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA journal_mode = WAL",
			"PRAGMA foreign_keys = ON",
		} {
			if _, err := conn.ExecContext(ctx, pragma); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("unable to apply %q: %w", pragma, err)
			}
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unable to ping %s database: %w", driver, err)
	}

	logger.Info("SQLite connected", zap.String("driver", driver))
	return &SQLite{DB: conn, Driver: driver}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLite) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
