// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tutora/internal/api"
	"github.com/taibuivan/tutora/internal/platform/constants"
	"github.com/taibuivan/tutora/internal/platform/metrics"
	"github.com/taibuivan/tutora/internal/platform/middleware"
	pgstore "github.com/taibuivan/tutora/internal/platform/postgres"
	redisstore "github.com/taibuivan/tutora/internal/platform/redis"
	"github.com/taibuivan/tutora/internal/users/account"
	"github.com/taibuivan/tutora/internal/users/auth"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// serve runs the API until ctx is cancelled by SIGINT or SIGTERM.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect the credential store, Redis and NATS; run migrations.
//  4. Wire HTTP handlers.
//  5. Start HTTP server with graceful shutdown.
func serve(ctx context.Context) error {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	log.Info("[Tutora] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, log, err := loadConfig(log)
	if err != nil {
		return err
	}

	// Startup has its own deadline so misconfiguration is caught quickly
	// rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(ctx, constants.StartupTimeout)
	defer startupCancel()

	// ── 3. Infrastructure ─────────────────────────────────────────────────
	deps, err := bootstrap(startupCtx, cfg, log)
	if err != nil {
		log.Error("startup_failure", slog.String("context", "bootstrap"), slog.Any("error", err))
		return err
	}
	defer deps.Close()

	// ── 4. Health handlers (wired with real dependency checkers) ──────────
	healthDependencies := api.HealthDependencies{
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, deps.cache)
		},
	}
	if deps.pool != nil {
		healthDependencies.CheckDatabase = func(ctx context.Context) error {
			return pgstore.Ping(ctx, deps.pool)
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDependencies, log)

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	credentialLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(deps.registry),
		Auth:      auth.NewHandler(deps.authService, deps.tokens, credentialLimiter),
		Account:   account.NewHandler(account.NewService(deps.store), deps.tokens),
	}

	server := api.NewServer(ctx, cfg, log, metrics.NewHTTP(deps.registry), handlers)

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case <-ctx.Done():
		log.Info("shutdown_signal_received")
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
		return err
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		return err
	}

	log.Info("server_stopped_cleanly")
	return nil
}
