// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/ctxutil"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/platform/validate"
)

// # Tutor Registration Drafts
//
// A tutor signs up in steps. Each step writes a draft record keyed by the
// digest of a random draft token, with a sliding TTL. Concurrent sign-ups
// never share state, and an abandoned draft simply expires.

// DraftStartInput opens a draft with the credentials.
type DraftStartInput struct {
	Username string
	Password string
}

/*
StartTutorDraft validates the credentials, hashes the password and opens a draft.

Returns:
  - *DraftTicket: The draft token to present in later steps
  - error: ValidationError, DuplicateCredential or internal failures
*/
func (service *Service) StartTutorDraft(ctx context.Context, input DraftStartInput) (ticket *DraftTicket, err error) {
	defer service.observe(OpDraftStart, KindTutor, &err)

	key := NormalizeKey(input.Username)

	validator := &validate.Validator{}
	validateCredentials(validator, key, FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.ensureKeyAvailable(ctx, KindTutor, key); err != nil {
		return nil, err
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	token, err := sec.GenerateSecureToken(DraftTokenLength)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_draft_token_failed: %w", err))
	}

	draft := &Draft{
		CredentialKey: key,
		PasswordHash:  passwordHash,
		CreatedAt:     service.now().UTC(),
	}
	return service.saveDraft(ctx, token, draft)
}

// UpdateTutorDraftPersonal records the personal-details step. An unknown
// draft is reported before any problem with the body.
func (service *Service) UpdateTutorDraftPersonal(ctx context.Context, token string, personal TutorPersonal) (ticket *DraftTicket, err error) {
	defer service.observe(OpDraftUpdate, KindTutor, &err)

	draft, err := service.loadDraft(ctx, token)
	if err != nil {
		return nil, err
	}

	personal.Normalize()

	validator := &validate.Validator{}
	validator.Struct("", &personal)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	personal.ApplyTo(&draft.Profile)
	return service.saveDraft(ctx, token, draft)
}

// UpdateTutorDraftTeaching records the teaching-details step.
func (service *Service) UpdateTutorDraftTeaching(ctx context.Context, token string, teaching TutorTeaching) (ticket *DraftTicket, err error) {
	defer service.observe(OpDraftUpdate, KindTutor, &err)

	draft, err := service.loadDraft(ctx, token)
	if err != nil {
		return nil, err
	}

	teaching.Normalize()

	validator := &validate.Validator{}
	validator.Struct("", &teaching)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	teaching.applyTo(&draft.Profile)
	return service.saveDraft(ctx, token, draft)
}

/*
CompleteTutorDraft turns a finished draft into a tutor principal.

Description: The assembled profile is validated as a whole, the username is
checked again (it may have been taken since the draft started), and the
draft is deleted once the principal exists.

Returns:
  - *RegisterResult: Access token and the created tutor
  - error: NotFound, ValidationError, DuplicateCredential or internal failures
*/
func (service *Service) CompleteTutorDraft(ctx context.Context, token string) (result *RegisterResult, err error) {
	defer service.observe(OpDraftComplete, KindTutor, &err)

	draft, err := service.loadDraft(ctx, token)
	if err != nil {
		return nil, err
	}

	profile := Profile{Tutor: &draft.Profile}

	validator := &validate.Validator{}
	validateProfile(validator, KindTutor, profile)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.ensureKeyAvailable(ctx, KindTutor, draft.CredentialKey); err != nil {
		return nil, err
	}

	result, err = service.createPrincipal(ctx, &Principal{
		Kind:          KindTutor,
		CredentialKey: draft.CredentialKey,
		PasswordHash:  draft.PasswordHash,
		Role:          KindTutor.Role(),
		Profile:       profile,
	})
	if err != nil {
		return nil, err
	}

	if err := service.drafts.Delete(ctx, sec.HashToken(token)); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "registration_draft_delete_failed", slog.Any("error", err))
	}
	return result, nil
}

func (service *Service) loadDraft(ctx context.Context, token string) (*Draft, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.MissingInput(FieldDraftToken)
	}

	draft, err := service.drafts.Get(ctx, sec.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return nil, apperr.NotFound("Registration draft")
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_draft_load_failed: %w", err))
	}
	return draft, nil
}

// saveDraft writes the draft and restarts its TTL.
func (service *Service) saveDraft(ctx context.Context, token string, draft *Draft) (*DraftTicket, error) {
	draft.ExpiresAt = service.now().Add(service.options.DraftTTL).UTC()

	if err := service.drafts.Save(ctx, sec.HashToken(token), draft, service.options.DraftTTL); err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_draft_save_failed: %w", err))
	}
	return &DraftTicket{DraftToken: token, ExpiresAt: draft.ExpiresAt}, nil
}
