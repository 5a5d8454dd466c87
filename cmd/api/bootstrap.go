// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/tutora/internal/platform/config"
	"github.com/taibuivan/tutora/internal/platform/events"
	"github.com/taibuivan/tutora/internal/platform/metrics"
	"github.com/taibuivan/tutora/internal/platform/migration"
	pgstore "github.com/taibuivan/tutora/internal/platform/postgres"
	redisstore "github.com/taibuivan/tutora/internal/platform/redis"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/users/auth"
)

// dependencies are the infrastructure and services shared by serve and seed.
type dependencies struct {
	pool        *pgxpool.Pool
	cache       *goredis.Client
	store       auth.CredentialStore
	tokens      *sec.TokenService
	publisher   events.Publisher
	registry    *prometheus.Registry
	authService *auth.Service
	closers     []func()
}

// bootstrap connects every dependency and builds the session manager. On
// error, whatever was opened is closed again.
func bootstrap(ctx context.Context, cfg *config.Config, log *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}
	if err := deps.wire(ctx, cfg, log); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

func (deps *dependencies) wire(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var err error

	// ── 1. Credential Store ───────────────────────────────────────────────
	if cfg.UsesPostgres() {
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		deps.pool = pool
		deps.closers = append(deps.closers, func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		})

		if err := migration.Up(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		deps.store = auth.NewPostgresStore(pool)
	} else {
		log.Warn("memory_store_enabled", slog.String("hint", "records are lost on restart"))
		deps.store = auth.NewMemoryStore()
	}

	// ── 2. Redis (registration drafts) ────────────────────────────────────
	cache, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	deps.cache = cache
	deps.closers = append(deps.closers, func() {
		log.Info("closing_redis_client")
		if cerr := cache.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	})

	// ── 3. Event Publisher ────────────────────────────────────────────────
	deps.publisher = events.Discard{}
	if cfg.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, log)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		deps.publisher = publisher
		deps.closers = append(deps.closers, func() {
			if cerr := publisher.Close(); cerr != nil {
				log.Error("nats_close_error", slog.Any("error", cerr))
			}
		})
	}

	// ── 4. Security Primitives ────────────────────────────────────────────
	deps.tokens, err = sec.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("initialize token service: %w", err)
	}

	hasher, err := sec.NewBcryptHasher(cfg.PasswordHashCost)
	if err != nil {
		return fmt.Errorf("initialize password hasher: %w", err)
	}

	// ── 5. Metrics & Session Manager ──────────────────────────────────────
	deps.registry = prometheus.NewRegistry()
	deps.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps.authService = auth.NewService(
		deps.store,
		auth.NewRedisDraftStore(cache),
		hasher,
		deps.tokens,
		deps.publisher,
		metrics.NewAuth(deps.registry),
		auth.Options{
			RotateRefreshTokens: cfg.RotateRefreshTokens,
			DraftTTL:            cfg.RegistrationDraftTTL,
		},
	)

	return nil
}

// Close releases the dependencies in reverse order of creation.
func (deps *dependencies) Close() {
	for i := len(deps.closers) - 1; i >= 0; i-- {
		deps.closers[i]()
	}
	deps.closers = nil
}
