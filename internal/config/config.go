// Package config defines the top-level configuration for the marketd quote
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETD_* environment
// variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Market   MarketConfig   `toml:"market"`
	Stream   StreamConfig   `toml:"stream"`
	Ingest   IngestConfig   `toml:"ingest"`
	Journal  JournalConfig  `toml:"journal"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds gRPC server parameters.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// AuthToken is the credential every call's authorization header is
	// compared against, verbatim.
	AuthToken string `toml:"auth_token"`
}

// MarketConfig holds the daily trading window. Open and Close are "HH:MM"
// times of day; OffsetHours is subtracted from the current instant before
// the window comparison (timezone normalization).
type MarketConfig struct {
	Open        string `toml:"open"`
	Close       string `toml:"close"`
	OffsetHours int    `toml:"offset_hours"`
}

// StreamConfig holds server-streaming parameters.
type StreamConfig struct {
	MaxQuotes      int      `toml:"max_quotes"`
	Interval       duration `toml:"interval"`
	DeadlineMargin duration `toml:"deadline_margin"`
}

// IngestConfig holds client-streaming ingest parameters.
type IngestConfig struct {
	BatchSize int `toml:"batch_size"`
}

// JournalConfig selects and parameterizes the update-journal backend.
type JournalConfig struct {
	// Backend is one of "file", "postgres", "redis".
	Backend string `toml:"backend"`
	// FilePath is the journal file location for the file backend.
	FilePath string `toml:"file_path"`
	// RedisStream is the stream key for the redis backend.
	RedisStream string `toml:"redis_stream"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "2s", "500ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. These
// match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":50051",
			AuthToken: "jwt-token",
		},
		Market: MarketConfig{
			Open:        "09:30",
			Close:       "16:00",
			OffsetHours: 4,
		},
		Stream: StreamConfig{
			MaxQuotes:      5,
			Interval:       duration{2 * time.Second},
			DeadlineMargin: duration{3 * time.Second},
		},
		Ingest: IngestConfig{
			BatchSize: 2,
		},
		Journal: JournalConfig{
			Backend:     "file",
			FilePath:    "price_updates.log",
			RedisStream: "marketd:price_updates",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		LogLevel: "info",
	}
}

// validBackends enumerates the accepted values for Journal.Backend.
var validBackends = map[string]bool{
	"file":     true,
	"postgres": true,
	"redis":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty")
	}
	if c.Server.AuthToken == "" {
		errs = append(errs, "server: auth_token must not be empty")
	}

	if c.Market.Open == "" || c.Market.Close == "" {
		errs = append(errs, "market: open and close must be set as HH:MM")
	}
	if c.Market.OffsetHours < 0 {
		errs = append(errs, fmt.Sprintf("market: offset_hours must be >= 0, got %d", c.Market.OffsetHours))
	}

	if c.Stream.MaxQuotes < 1 {
		errs = append(errs, fmt.Sprintf("stream: max_quotes must be >= 1, got %d", c.Stream.MaxQuotes))
	}
	if c.Stream.Interval.Duration <= 0 {
		errs = append(errs, "stream: interval must be positive")
	}
	if c.Stream.DeadlineMargin.Duration < 0 {
		errs = append(errs, "stream: deadline_margin must be >= 0")
	}

	if c.Ingest.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("ingest: batch_size must be >= 1, got %d", c.Ingest.BatchSize))
	}

	backend := strings.ToLower(c.Journal.Backend)
	if !validBackends[backend] {
		errs = append(errs, fmt.Sprintf("journal: unknown backend %q (valid: file, postgres, redis)", c.Journal.Backend))
	}
	switch backend {
	case "file":
		if c.Journal.FilePath == "" {
			errs = append(errs, "journal: file_path must be set for the file backend")
		}
	case "postgres":
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Journal.RedisStream == "" {
			errs = append(errs, "journal: redis_stream must be set for the redis backend")
		}
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
