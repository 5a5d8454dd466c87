// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tutora/internal/platform/config"
	"github.com/taibuivan/tutora/internal/platform/migration"
)

func migrateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(*cobra.Command, []string) error {
			cfg, log, err := loadMigrationConfig()
			if err != nil {
				return err
			}
			return migration.Up(cfg.DatabaseURL, cfg.MigrationPath, log)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(*cobra.Command, []string) error {
			cfg, log, err := loadMigrationConfig()
			if err != nil {
				return err
			}
			return migration.Down(cfg.DatabaseURL, cfg.MigrationPath, steps, log)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	command.AddCommand(up, down)
	return command
}

func loadMigrationConfig() (*config.MigrationConfig, *slog.Logger, error) {
	log := newLogger(slog.LevelInfo)

	cfg, err := config.LoadMigration()
	if err != nil {
		log.Error("startup_failure", slog.String("context", "load migration configuration"), slog.Any("error", err))
		return nil, nil, err
	}
	return cfg, log, nil
}
