// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Tutora auth service.
//
// # Commands
//
//   - serve (default): run the HTTP API server with graceful shutdown.
//   - migrate up|down: apply or roll back the SQL migrations.
//   - seed: create the demo student and tutor accounts.
//   - version: print the build version.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taibuivan/tutora/internal/platform/config"
	"github.com/taibuivan/tutora/internal/platform/constants"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	os.Exit(execute(ctx, rootCommand(), os.Args[1:]))
}

// execute runs the command tree and returns the process exit code. Cobra's
// own error printing is silenced, so every failure is logged here.
func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Default().Error("startup_failure", slog.Any("error", err))
		return 1
	}
	return 0
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Tutora authentication and session service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env file is normal outside local development
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(serveCommand(), migrateCommand(), seedCommand(), versionCommand())
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", constants.AppName, constants.AppVersion)
		},
	}
}

// newLogger builds the JSON logger every log line of the process goes through.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

// loadConfig reads the configuration and re-initialises the logger at debug
// level when DEBUG is set.
func loadConfig(log *slog.Logger) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error("startup_failure", slog.String("context", "load configuration"), slog.Any("error", err))
		return nil, log, err
	}

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)
	return cfg, log, nil
}
