package db

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPoolOptions_Apply(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/links?pool_max_conns=10")
	if err != nil {
		t.Fatal(err)
	}

	PoolOptions{}.apply(cfg)
	if cfg.MaxConns != 10 {
		t.Fatalf("zero options changed max conns to %d", cfg.MaxConns)
	}

	PoolOptions{MaxConns: 4, MinConns: 2, MaxConnLifetime: time.Minute}.apply(cfg)
	if cfg.MaxConns != 4 || cfg.MinConns != 2 || cfg.MaxConnLifetime != time.Minute {
		t.Errorf("got max=%d min=%d lifetime=%v", cfg.MaxConns, cfg.MinConns, cfg.MaxConnLifetime)
	}

	PoolOptions{MinConns: 9}.apply(cfg)
	if cfg.MinConns != 2 {
		t.Errorf("min conns above max should be ignored, got %d", cfg.MinConns)
	}
}

func TestMongoOptions_ClientOptions(t *testing.T) {
	opts := MongoOptions{AppName: "links", MaxPoolSize: 20}.clientOptions("mongodb://localhost:27017")

	if opts.AppName == nil || *opts.AppName != "links" {
		t.Errorf("got app name %v", opts.AppName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 20 {
		t.Errorf("got max pool size %v", opts.MaxPoolSize)
	}
	if opts.Monitor == nil {
		t.Error("expected the tracing monitor to be installed")
	}
}
