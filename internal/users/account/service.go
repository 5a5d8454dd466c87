// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/ctxutil"
	"github.com/taibuivan/tutora/internal/platform/validate"
	"github.com/taibuivan/tutora/internal/users/auth"
)

// # Service Layer

// Service reads and updates the profile of an authenticated principal.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a new [Service] over the credential store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// # Profile Management

/*
GetProfile retrieves the record of a principal.

Parameters:
  - ctx: context.Context
  - kind: auth.Kind (derived from the token role)
  - principalID: string

Returns:
  - *auth.Principal: The principal without secrets (they are not serialised)
  - error: PrincipalNotFound or storage failures
*/
func (service *Service) GetProfile(ctx context.Context, kind auth.Kind, principalID string) (*auth.Principal, error) {
	return service.find(ctx, kind, principalID)
}

/*
UpdateStudentProfile replaces the profile of a student.

Description: The whole student profile is replaced, not merged. The name stays
required, exactly as at registration.

Parameters:
  - ctx: context.Context
  - principalID: string
  - profile: auth.StudentProfile

Returns:
  - *auth.Principal: The updated principal
  - error: ValidationError, PrincipalNotFound or storage failures
*/
func (service *Service) UpdateStudentProfile(ctx context.Context, principalID string, profile auth.StudentProfile) (*auth.Principal, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)

	validator := &validate.Validator{}
	validator.Struct(fieldProfile, &profile)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	principal, err := service.find(ctx, auth.KindStudent, principalID)
	if err != nil {
		return nil, err
	}

	replacement := auth.Profile{Student: &profile}
	if err := service.update(ctx, principal, auth.Update{Profile: &replacement}); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "student_profile_updated", slog.String("principal_id", principal.ID))
	return principal, nil
}

/*
UpdateTutorSubjects replaces the subject list of a tutor.

Parameters:
  - ctx: context.Context
  - principalID: string
  - subjects: []auth.Subject (an empty list clears the subjects)

Returns:
  - *auth.Principal: The updated principal
  - error: ValidationError, PrincipalNotFound or storage failures
*/
func (service *Service) UpdateTutorSubjects(ctx context.Context, principalID string, subjects []auth.Subject) (*auth.Principal, error) {
	input := SubjectsInput{Subjects: auth.TrimSubjects(subjects)}

	validator := &validate.Validator{}
	validator.Struct("", &input)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	principal, err := service.updateTutor(ctx, principalID, func(tutor *auth.TutorProfile) {
		tutor.Subjects = slices.Clone(input.Subjects)
	})
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "tutor_subjects_updated",
		slog.String("principal_id", principal.ID),
		slog.Int("subjects", len(input.Subjects)),
	)
	return principal, nil
}

/*
UpdateTutorPersonal replaces the personal details of a tutor.

Description: Uses the same fields and rules as the personal step of a
registration draft. Teaching details are left untouched.

Returns:
  - *auth.Principal: The updated principal
  - error: ValidationError, PrincipalNotFound or storage failures
*/
func (service *Service) UpdateTutorPersonal(ctx context.Context, principalID string, personal auth.TutorPersonal) (*auth.Principal, error) {
	personal.Normalize()

	validator := &validate.Validator{}
	validator.Struct("", &personal)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	principal, err := service.updateTutor(ctx, principalID, personal.ApplyTo)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "tutor_personal_updated", slog.String("principal_id", principal.ID))
	return principal, nil
}

// UpdateTutorLanguages replaces the languages a tutor teaches in.
func (service *Service) UpdateTutorLanguages(ctx context.Context, principalID string, languages []string) (*auth.Principal, error) {
	input := LanguagesInput{Languages: auth.TrimAll(languages)}

	validator := &validate.Validator{}
	validator.Struct("", &input)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	principal, err := service.updateTutor(ctx, principalID, func(tutor *auth.TutorProfile) {
		tutor.Languages = slices.Clone(input.Languages)
	})
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "tutor_languages_updated",
		slog.String("principal_id", principal.ID),
		slog.Int("languages", len(input.Languages)),
	)
	return principal, nil
}

// # Helpers

func (service *Service) find(ctx context.Context, kind auth.Kind, principalID string) (*auth.Principal, error) {
	principal, err := service.store.FindByID(ctx, kind, principalID)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return nil, apperr.PrincipalNotFound(kind.Label())
		}
		return nil, apperr.Internal(fmt.Errorf("account_service_find_failed: %w", err))
	}
	return principal, nil
}

// updateTutor applies mutate to a copy of the tutor profile and stores it.
func (service *Service) updateTutor(ctx context.Context, principalID string, mutate func(*auth.TutorProfile)) (*auth.Principal, error) {
	principal, err := service.find(ctx, auth.KindTutor, principalID)
	if err != nil {
		return nil, err
	}

	replacement := principal.Profile.Clone()
	if replacement.Tutor == nil {
		replacement.Tutor = &auth.TutorProfile{}
	}
	mutate(replacement.Tutor)

	if err := service.update(ctx, principal, auth.Update{Profile: &replacement}); err != nil {
		return nil, err
	}
	return principal, nil
}

// update persists update and mirrors it onto principal.
func (service *Service) update(ctx context.Context, principal *auth.Principal, update auth.Update) error {
	if err := service.store.UpdateFields(ctx, principal.Kind, principal.ID, update); err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return apperr.PrincipalNotFound(principal.Kind.Label())
		}
		return apperr.Internal(fmt.Errorf("account_service_update_failed: %w", err))
	}
	update.Apply(principal, service.now())
	return nil
}
