// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"clubid/internal/platform/database"
	"clubid/internal/platform/kafka"
)

const devSigningKey = "dev-secret-key-change-in-production"

type Config struct {
	Server        Server
	Database      database.Config
	Redis         RedisConfig
	Kafka         KafkaConfig
	Auth          AuthConfig
	Audit         AuditConfig
	Notifications NotificationsConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SeedDemoData    bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AdminTTL     time.Duration
}

type KafkaConfig struct {
	Enabled  bool
	Producer kafka.ProducerConfig
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	TokenTTL      time.Duration
}

// AuditConfig controls whether appended entries are mirrored to the log.
type AuditConfig struct {
	MirrorToLog bool
}

type NotificationsConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// FromEnv builds the configuration so main stays lean. Malformed values are
// errors; absent values take defaults.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	env := &reader{errs: &errs}

	cfg := &Config{
		Server: Server{
			Addr:            env.str("CLUBID_ADDR", ":8080"),
			Environment:     env.str("CLUBID_ENV", "local"),
			LogLevel:        env.str("LOG_LEVEL", "info"),
			RequestTimeout:  env.duration("REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			SeedDemoData:    env.boolean("SEED_DEMO_DATA", false),
		},
		Database: database.DefaultConfig(),
		Redis: RedisConfig{
			URL:          env.str("REDIS_URL", ""),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			AdminTTL:     env.duration("ENTITY_ADMIN_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{Producer: kafka.DefaultProducerConfig()},
		Auth: AuthConfig{
			JWTSigningKey: env.str("JWT_SIGNING_KEY", devSigningKey),
			Issuer:        env.str("JWT_ISSUER", "clubid"),
			TokenTTL:      env.duration("TOKEN_TTL", 15*time.Minute),
		},
		Audit: AuditConfig{
			MirrorToLog: env.boolean("AUDIT_MIRROR_TO_LOG", true),
		},
		Notifications: NotificationsConfig{
			PollInterval: env.duration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    env.integer("OUTBOX_BATCH_SIZE", 100),
			Retention:    env.duration("OUTBOX_RETENTION", 24*time.Hour),
		},
	}

	cfg.Database.URL = env.str("DATABASE_URL", "")
	cfg.Database.MaxOpenConns = env.integer("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = env.integer("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = env.duration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)
	cfg.Database.ConnMaxIdleTime = env.duration("DB_CONN_MAX_IDLE_TIME", cfg.Database.ConnMaxIdleTime)

	cfg.Kafka.Producer.Brokers = env.str("KAFKA_BROKERS", "")
	cfg.Kafka.Producer.Topic = env.str("KAFKA_NOTIFICATIONS_TOPIC", cfg.Kafka.Producer.Topic)
	cfg.Kafka.Producer.Acks = env.str("KAFKA_ACKS", cfg.Kafka.Producer.Acks)
	cfg.Kafka.Enabled = cfg.Kafka.Producer.Brokers != ""

	if cfg.Auth.JWTSigningKey == devSigningKey && cfg.Server.Environment == "production" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// UsesPostgres reports whether stores should be backed by the database.
func (c *Config) UsesPostgres() bool { return c.Database.URL != "" }

type reader struct {
	errs *[]error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
