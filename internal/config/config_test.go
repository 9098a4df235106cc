package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Backend != BackendPostgres {
		t.Errorf("got backend %q, want %q", cfg.Storage.Backend, BackendPostgres)
	}
	if cfg.Storage.Timeout != 5*time.Second {
		t.Errorf("got storage timeout %v, want 5s", cfg.Storage.Timeout)
	}
	if cfg.Sweeper.Interval != 100*time.Second {
		t.Errorf("got sweep interval %v, want 100s", cfg.Sweeper.Interval)
	}
	if cfg.Shortener.CodeLength != 10 {
		t.Errorf("got code length %d, want 10", cfg.Shortener.CodeLength)
	}
	if cfg.Shortener.RedirectStatus != 302 {
		t.Errorf("got redirect status %d, want 302", cfg.Shortener.RedirectStatus)
	}
	if cfg.Kafka.Enabled || cfg.Redis.Enabled || cfg.OTel.Enabled {
		t.Error("optional integrations should be disabled by default")
	}
	if !strings.HasPrefix(cfg.Postgres.DSN, "postgres://") {
		t.Errorf("got DSN %q, want a postgres:// URL", cfg.Postgres.DSN)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SQLITE_URL", "/tmp/test.db")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("API_KEYS", "k1, k2")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("SHORTENER_BASE_URL", "https://sho.rt/")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("got backend %q, want %q", cfg.Storage.Backend, BackendSQLite)
	}
	if cfg.SQLite.URL != "/tmp/test.db" {
		t.Errorf("got sqlite url %q", cfg.SQLite.URL)
	}
	if cfg.Sweeper.Interval != 30*time.Second {
		t.Errorf("got interval %v, want 30s", cfg.Sweeper.Interval)
	}
	if len(cfg.Security.APIKeys) != 2 || cfg.Security.APIKeys[1] != "k2" {
		t.Errorf("got api keys %v", cfg.Security.APIKeys)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("got brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Shortener.BaseURL != "https://sho.rt" {
		t.Errorf("got base url %q, want trailing slash trimmed", cfg.Shortener.BaseURL)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "STORAGE_BACKEND", "cassandra"},
		{"redirect status", "REDIRECT_STATUS", "307"},
		{"code too short", "CODE_LENGTH", "4"},
		{"code too long", "CODE_LENGTH", "44"},
		{"zero sweep interval", "SWEEP_INTERVAL", "0s"},
		{"negative storage timeout", "STORAGE_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestFromEnv_KafkaRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}

	cfg.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when kafka is enabled without brokers")
	}
}
