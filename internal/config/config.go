package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	MongoDB   MongoDBConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Shortener ShortenerConfig
	Sweeper   SweeperConfig
	Security  SecurityConfig
	OTel      OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	Backend string
	Timeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	AutoMigrate     bool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
}

type MongoDBConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    int
}

type SQLiteConfig struct {
	URL string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	Topic           string
	GroupID         string
	WriteTimeout    time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

type ShortenerConfig struct {
	BaseURL        string
	CodeLength     int
	RedirectStatus int // 301 or 302
}

type SweeperConfig struct {
	Enabled    bool
	Interval   time.Duration
	Timeout    time.Duration
	LockKey    string
	InstanceID string
}

type SecurityConfig struct {
	APIKeys     []string
	JWTSecret   string
	CORSOrigins []string
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "encurtador-links"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:            GetEnv("APP_PORT", "8080"),
			Host:            GetEnv("APP_HOST", "localhost"),
			ShutdownTimeout: GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(GetEnv("STORAGE_BACKEND", BackendPostgres)),
			Timeout: GetEnvDuration("STORAGE_TIMEOUT", 5*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             GetEnv("DB_DSN", DefaultPostgresDSN()),
			AutoMigrate:     GetEnvBool("DB_AUTO_MIGRATE", true),
			MaxConns:        GetEnvInt("DB_MAX_CONNS", 0),
			MinConns:        GetEnvInt("DB_MIN_CONNS", 0),
			MaxConnLifetime: GetEnvDuration("DB_MAX_CONN_LIFETIME", 0),
		},
		MongoDB: MongoDBConfig{
			URI:            GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       GetEnv("MONGODB_DATABASE", "encurtador"),
			ConnectTimeout: GetEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:    GetEnvInt("MONGODB_MAX_POOL_SIZE", 0),
		},
		SQLite: SQLiteConfig{
			URL: GetEnv("SQLITE_URL", "links.db"),
		},
		Redis: RedisConfig{
			Enabled:  GetEnvBool("REDIS_ENABLED", false),
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:         GetEnvBool("KAFKA_ENABLED", false),
			Brokers:         GetEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:           GetEnv("KAFKA_LINK_TOPIC", "links.lifecycle"),
			GroupID:         GetEnv("KAFKA_GROUP_ID", "linkctl"),
			WriteTimeout:    GetEnvDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
			BreakerFailures: GetEnvInt("KAFKA_BREAKER_FAILURES", 5),
			BreakerCooldown: GetEnvDuration("KAFKA_BREAKER_COOLDOWN", 30*time.Second),
		},
		Shortener: ShortenerConfig{
			BaseURL:        strings.TrimRight(GetEnv("SHORTENER_BASE_URL", "http://localhost:8080"), "/"),
			CodeLength:     GetEnvInt("CODE_LENGTH", 10),
			RedirectStatus: GetEnvInt("REDIRECT_STATUS", 302),
		},
		Sweeper: SweeperConfig{
			Enabled:    GetEnvBool("SWEEP_ENABLED", true),
			Interval:   GetEnvDuration("SWEEP_INTERVAL", 100*time.Second),
			Timeout:    GetEnvDuration("SWEEP_TIMEOUT", 30*time.Second),
			LockKey:    GetEnv("SWEEP_LOCK_KEY", "links:sweep:lock"),
			InstanceID: GetEnv("SWEEP_INSTANCE_ID", DefaultWorkerID("link-sweeper")),
		},
		Security: SecurityConfig{
			APIKeys:     GetEnvList("API_KEYS", nil),
			JWTSecret:   GetEnv("JWT_SECRET", ""),
			CORSOrigins: GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres, BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of memory, postgres, mongo, sqlite (got %q)", c.Storage.Backend)
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be > 0")
	}
	if c.Shortener.RedirectStatus != 301 && c.Shortener.RedirectStatus != 302 {
		return fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", c.Shortener.RedirectStatus)
	}
	if c.Shortener.CodeLength < 6 || c.Shortener.CodeLength > 43 {
		return fmt.Errorf("CODE_LENGTH must be between 6 and 43 (got %d)", c.Shortener.CodeLength)
	}
	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if c.Sweeper.Timeout <= 0 {
		return fmt.Errorf("SWEEP_TIMEOUT must be > 0")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must contain at least one broker when KAFKA_ENABLED is set")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("REDIS_ADDR must not be empty when REDIS_ENABLED is set")
	}
	if c.Postgres.MaxConns < 0 || c.Postgres.MinConns < 0 || c.MongoDB.MaxPoolSize < 0 {
		return fmt.Errorf("connection pool sizes must not be negative")
	}
	if c.Storage.Backend == BackendPostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}
	return nil
}
