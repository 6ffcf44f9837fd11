package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsRedis = "redis"
)

type AppConfig struct {
	HTTPAddr    string
	Env         string
	CorsOrigins []string

	Storage StorageConfig
	JWT     JWTConfig
	Events  EventsConfig
}

type StorageConfig struct {
	Driver       string // memory | postgres
	DatabaseURL  string
	MaxRetries   int
	MigrateOnRun bool
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type EventsConfig struct {
	Driver       string // none | kafka | redis
	KafkaBrokers []string
	RedisAddr    string
	RedisPass    string
}

// Load reads the configuration from the environment. Call godotenv.Load
// first to pick up a .env file.
func Load() (AppConfig, error) {
	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return AppConfig{}, fmt.Errorf("JWT_TTL: %w", err)
	}
	retries, err := strconv.Atoi(getEnv("DB_MAX_RETRIES", "5"))
	if err != nil {
		return AppConfig{}, fmt.Errorf("DB_MAX_RETRIES: %w", err)
	}
	migrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "true"))
	if err != nil {
		return AppConfig{}, fmt.Errorf("DB_MIGRATE: %w", err)
	}

	cfg := AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		Env:         getEnv("APP_ENV", "production"),
		CorsOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Storage: StorageConfig{
			Driver:       strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			MaxRetries:   retries,
			MigrateOnRun: migrate,
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getEnv("JWT_ISSUER", "fin-ledger"),
			TTL:    ttl,
		},
		Events: EventsConfig{
			Driver:       strings.ToLower(getEnv("EVENTS_DRIVER", EventsNone)),
			KafkaBrokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPass:    getEnv("REDIS_PASS", ""),
		},
	}
	return cfg, cfg.Validate()
}

func (c AppConfig) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
		if c.Storage.MaxRetries < 1 {
			errs = append(errs, errors.New("DB_MAX_RETRIES must be at least 1"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Events.Driver {
	case EventsNone, EventsRedis:
	case EventsKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_DRIVER %q", c.Events.Driver))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	return errors.Join(errs...)
}

func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
