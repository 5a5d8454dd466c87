// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/constants"
	"github.com/taibuivan/tutora/internal/users/auth"
)

func seedCommand() *cobra.Command {
	var password string

	command := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo student and tutor accounts if absent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context(), password)
		},
	}
	command.Flags().StringVar(&password, "password", "", "Password of both demo accounts")
	_ = command.MarkFlagRequired("password")

	return command
}

// demoAccounts goes through the regular registration path, so every rule
// that applies to users applies to the demo data too.
func demoAccounts(password string) []auth.RegisterInput {
	return []auth.RegisterInput{
		{
			Kind:     auth.KindStudent,
			Username: "demo_student",
			Password: password,
			Profile:  auth.Profile{Student: &auth.StudentProfile{Name: "Demo Student"}},
		},
		{
			Kind:     auth.KindTutor,
			Username: "demo_tutor",
			Password: password,
			Profile: auth.Profile{Tutor: &auth.TutorProfile{
				Name:     "Demo Tutor",
				Email:    "demo_tutor@tutora.app",
				Subjects: []auth.Subject{{Name: "Mathematics", Level: "Secondary"}},
			}},
		},
	}
}

func seed(ctx context.Context, password string) error {
	log := newLogger(slog.LevelInfo)

	cfg, log, err := loadConfig(log)
	if err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, constants.StartupTimeout)
	defer cancel()

	deps, err := bootstrap(startupCtx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	for _, input := range demoAccounts(password) {
		result, err := deps.authService.Register(ctx, input)
		switch {
		case apperr.HasCode(err, apperr.CodeDuplicateCredential):
			log.Info("seed_account_exists", slog.String("username", input.Username))
		case err != nil:
			attrs := []any{slog.String("username", input.Username), slog.Any("error", err)}
			if appError := apperr.As(err); appError != nil && len(appError.Details) > 0 {
				attrs = append(attrs, slog.Any("details", appError.Details))
			}
			log.Error("seed_account_failed", attrs...)
			return fmt.Errorf("seed %s: %w", input.Username, err)
		default:
			log.Info("seed_account_created",
				slog.String("username", input.Username),
				slog.String("principal_id", result.Principal.ID),
			)
		}
	}
	return nil
}
