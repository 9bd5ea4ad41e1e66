package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketd/internal/cache/redis"
	"marketd/internal/config"
	"marketd/internal/domain"
	"marketd/internal/market"
	"marketd/internal/quoteapi"
	"marketd/internal/store/filelog"
	"marketd/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application needs
// to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	Clock   *market.Clock
	Journal domain.UpdateJournal
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	clock, err := market.New(
		cfg.Market.Open,
		cfg.Market.Close,
		time.Duration(cfg.Market.OffsetHours)*time.Hour,
		quoteapi.ServiceName,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: market clock: %w", err)
	}

	deps := &Dependencies{Clock: clock}

	switch strings.ToLower(cfg.Journal.Backend) {
	case "file":
		j, err := filelog.Open(cfg.Journal.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: file journal: %w", err)
		}
		closers = append(closers, func() { _ = j.Close() })
		deps.Journal = j

	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Journal = postgres.NewUpdateJournal(pgClient.Pool())

	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Journal = redis.NewUpdateJournal(redisClient, cfg.Journal.RedisStream)

	default:
		return nil, nil, fmt.Errorf("wire: unknown journal backend %q", cfg.Journal.Backend)
	}

	return deps, cleanup, nil
}
