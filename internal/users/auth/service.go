// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/ctxutil"
	"github.com/taibuivan/tutora/internal/platform/events"
	"github.com/taibuivan/tutora/internal/platform/metrics"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/platform/validate"
	"github.com/taibuivan/tutora/pkg/uuid"
)

// # Contracts & Types

// PasswordHasher is the one-way salted hashing primitive.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, digest string) (bool, error)
}

// TokenIssuer signs and verifies session tokens. The audience is the
// principal kind, which binds a refresh token to its kind.
type TokenIssuer interface {
	IssueAccessToken(principalID, credentialKey string, role sec.Role, audience string) (string, error)
	IssueRefreshToken(principalID, audience string) (string, error)
	VerifyRefreshToken(token, audience string) (*sec.Claims, error)
}

// Options tunes the session manager.
type Options struct {
	// RotateRefreshTokens makes Refresh issue and store a new refresh token,
	// revoking the presented one.
	RotateRefreshTokens bool

	// DraftTTL is the sliding lifetime of a tutor registration draft.
	DraftTTL time.Duration
}

// defaultDraftTTL applies when Options.DraftTTL is zero.
const defaultDraftTTL = 30 * time.Minute

// decoyPassword is hashed once at construction. Login verifies against the
// resulting digest when the account does not exist, so an unknown username
// costs the same hashing work as a wrong password.
const decoyPassword = "tutora-decoy-password"

// Service is the session manager.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// issuance or the refresh-token comparison must be reviewed by the security team.
type Service struct {
	store     CredentialStore
	drafts    DraftStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	publisher events.Publisher
	metrics   *metrics.Auth
	options   Options
	now       func() time.Time

	decoyDigest string
}

// NewService constructs a new [Service]. A nil publisher discards events and
// a nil recorder disables metrics.
func NewService(
	store CredentialStore,
	drafts DraftStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	publisher events.Publisher,
	recorder *metrics.Auth,
	options Options,
) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if options.DraftTTL <= 0 {
		options.DraftTTL = defaultDraftTTL
	}

	// Hash fails only when the entropy source does. Verify then rejects the
	// empty digest and login still answers InvalidCredentials.
	decoyDigest, _ := hasher.Hash(decoyPassword)

	return &Service{
		store:     store,
		drafts:    drafts,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		metrics:   recorder,
		options:   options,
		now:       time.Now,

		decoyDigest: decoyDigest,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a principal.
type RegisterInput struct {
	Kind     Kind
	Username string
	Password string
	Profile  Profile
}

// RegisterResult logs the new principal in with an access token only.
type RegisterResult struct {
	AccessToken string     `json:"accessToken"`
	Principal   *Principal `json:"principal"`
}

/*
Register validates, hashes, and persists a new principal.

Description: Every field is validated before anything else so the client
sees all problems at once. The record is created only if the access token
could be signed, so a failure never leaves a half-registered account.

Returns:
  - *RegisterResult: Access token and the created principal
  - error: ValidationError, DuplicateCredential or internal failures
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (result *RegisterResult, err error) {
	defer service.observe(OpRegister, input.Kind, &err)

	if !input.Kind.Valid() {
		return nil, apperr.ValidationError("Unknown principal kind")
	}

	key := NormalizeKey(input.Username)
	profile := input.Profile.Clone()
	trimProfile(&profile)

	validator := &validate.Validator{}
	validateCredentials(validator, key, FieldPassword, input.Password)
	validateProfile(validator, input.Kind, profile)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.ensureKeyAvailable(ctx, input.Kind, key); err != nil {
		return nil, err
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	return service.createPrincipal(ctx, &Principal{
		Kind:          input.Kind,
		CredentialKey: key,
		PasswordHash:  passwordHash,
		Role:          input.Kind.Role(),
		Profile:       profile,
	})
}

// ensureKeyAvailable fails with DuplicateCredential if key is taken within kind.
func (service *Service) ensureKeyAvailable(ctx context.Context, kind Kind, key string) error {
	_, err := service.store.FindByCredentialKey(ctx, kind, key)
	switch {
	case err == nil:
		return apperr.DuplicateCredential(FieldUsername)
	case errors.Is(err, ErrPrincipalNotFound):
		return nil
	default:
		return apperr.Internal(fmt.Errorf("auth_service_duplicate_check_failed: %w", err))
	}
}

// createPrincipal signs the first access token, then inserts the record.
func (service *Service) createPrincipal(ctx context.Context, principal *Principal) (*RegisterResult, error) {
	principal.ID = uuid.New()

	accessToken, err := service.tokens.IssueAccessToken(principal.ID, principal.CredentialKey, principal.Role, string(principal.Kind))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_access_token_failed: %w", err))
	}

	if _, err := service.store.Insert(ctx, principal.Kind, principal); err != nil {
		if errors.Is(err, ErrDuplicateCredentialKey) {
			return nil, apperr.DuplicateCredential(FieldUsername)
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_register_failed: %w", err))
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "principal_registered",
		slog.String("principal_id", principal.ID),
		slog.String("kind", string(principal.Kind)),
	)
	service.publish(ctx, events.TypePrincipalRegistered, principal)

	return &RegisterResult{AccessToken: accessToken, Principal: principal}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Kind     Kind
	Username string
	Password string
}

// LoginResult carries both tokens of a new session.
type LoginResult struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	Principal    *Principal `json:"principal"`
}

/*
Login verifies credentials and opens a session.

Description: An unknown username and a wrong password produce the same
InvalidCredentials error. On success the new refresh token overwrites the
stored one, which revokes any refresh token issued earlier.

Returns:
  - *LoginResult: Access token, refresh token and principal
  - error: ValidationError, InvalidCredentials or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	defer service.observe(OpLogin, input.Kind, &err)

	if !input.Kind.Valid() {
		return nil, apperr.ValidationError("Unknown principal kind")
	}

	key := NormalizeKey(input.Username)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, key).Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	logger := ctxutil.GetLogger(ctx)

	principal, err := service.store.FindByCredentialKey(ctx, input.Kind, key)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			_, _ = service.hasher.Verify(input.Password, service.decoyDigest)
			logger.WarnContext(ctx, "session_login_rejected", slog.String("kind", string(input.Kind)))
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_login_lookup_failed: %w", err))
	}

	matched, err := service.hasher.Verify(input.Password, principal.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_password_verify_failed: %w", err))
	}
	if !matched {
		logger.WarnContext(ctx, "session_login_rejected",
			slog.String("kind", string(input.Kind)),
			slog.String("principal_id", principal.ID),
		)
		return nil, apperr.InvalidCredentials()
	}

	accessToken, refreshToken, err := service.issuePair(principal)
	if err != nil {
		return nil, err
	}

	if err := service.store.UpdateFields(ctx, input.Kind, principal.ID, Update{RefreshToken: &refreshToken}); err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_store_refresh_token_failed: %w", err))
	}
	principal.RefreshToken = &refreshToken

	logger.InfoContext(ctx, "session_login_succeeded",
		slog.String("principal_id", principal.ID),
		slog.String("kind", string(principal.Kind)),
	)
	service.publish(ctx, events.TypeSessionOpened, principal)

	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, Principal: principal}, nil
}

func (service *Service) issuePair(principal *Principal) (string, string, error) {
	audience := string(principal.Kind)

	accessToken, err := service.tokens.IssueAccessToken(principal.ID, principal.CredentialKey, principal.Role, audience)
	if err != nil {
		return "", "", apperr.Internal(fmt.Errorf("auth_service_access_token_failed: %w", err))
	}

	refreshToken, err := service.tokens.IssueRefreshToken(principal.ID, audience)
	if err != nil {
		return "", "", apperr.Internal(fmt.Errorf("auth_service_refresh_token_failed: %w", err))
	}
	return accessToken, refreshToken, nil
}

// # Session Management

// RefreshResult carries the new access token. RefreshToken is set only when
// rotation is enabled.
type RefreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

/*
Refresh mints a new access token from a refresh token.

Description: The token must verify (signature, expiry, kind) AND equal the
value stored on the principal. The second check is what makes logout and
re-login revoke a refresh token that has not expired yet.

Returns:
  - *RefreshResult: The new access token
  - error: MissingInput, TokenExpired, TokenInvalid, PrincipalNotFound,
    RefreshTokenRevoked or internal failures
*/
func (service *Service) Refresh(ctx context.Context, kind Kind, refreshToken string) (result *RefreshResult, err error) {
	defer service.observe(OpRefresh, kind, &err)

	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.MissingInput(FieldRefreshToken)
	}

	claims, err := service.tokens.VerifyRefreshToken(refreshToken, string(kind))
	if err != nil {
		if !apperr.IsAppError(err) {
			err = apperr.TokenInvalid(err)
		}
		return nil, err
	}

	principal, err := service.findPrincipal(ctx, kind, claims.PrincipalID)
	if err != nil {
		return nil, err
	}

	if principal.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*principal.RefreshToken), []byte(refreshToken)) != 1 {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_refresh_revoked", slog.String("principal_id", principal.ID))
		return nil, apperr.RefreshTokenRevoked()
	}

	result = &RefreshResult{}
	if service.options.RotateRefreshTokens {
		accessToken, rotated, err := service.issuePair(principal)
		if err != nil {
			return nil, err
		}
		if err := service.store.UpdateFields(ctx, kind, principal.ID, Update{RefreshToken: &rotated}); err != nil {
			return nil, service.updateError(kind, "rotate", err)
		}
		result.AccessToken, result.RefreshToken = accessToken, rotated
	} else {
		accessToken, err := service.tokens.IssueAccessToken(principal.ID, principal.CredentialKey, principal.Role, string(kind))
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("auth_service_access_token_failed: %w", err))
		}
		result.AccessToken = accessToken
	}

	service.publish(ctx, events.TypeSessionRefreshed, principal)
	return result, nil
}

/*
Logout clears the stored refresh token of a principal.

Description: Idempotent. A second logout finds no token and still succeeds.

Returns:
  - error: MissingInput, PrincipalNotFound or internal failures
*/
func (service *Service) Logout(ctx context.Context, kind Kind, principalID string) (err error) {
	defer service.observe(OpLogout, kind, &err)

	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return apperr.MissingInput(FieldPrincipalID)
	}

	principal, err := service.findPrincipal(ctx, kind, principalID)
	if err != nil {
		return err
	}

	if err := service.store.UpdateFields(ctx, kind, principal.ID, Update{ClearRefreshToken: true}); err != nil {
		return service.updateError(kind, "logout", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "session_logout_succeeded", slog.String("principal_id", principal.ID))
	service.publish(ctx, events.TypeSessionClosed, principal)
	return nil
}

// # Password Management

// ChangePasswordInput is a password change by the authenticated principal.
type ChangePasswordInput struct {
	Kind            Kind
	PrincipalID     string
	CurrentPassword string
	NewPassword     string
}

/*
ChangePassword re-hashes the password after checking the current one.

Description: The stored refresh token is cleared as well, so every device
has to log in again with the new password.

Returns:
  - error: ValidationError, PrincipalNotFound, InvalidCredentials or internal failures
*/
func (service *Service) ChangePassword(ctx context.Context, input ChangePasswordInput) (err error) {
	defer service.observe(OpChangePassword, input.Kind, &err)

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword)
	validatePassword(validator, FieldNewPassword, input.NewPassword)
	validator.Custom(FieldNewPassword, input.NewPassword != "" && input.NewPassword == input.CurrentPassword,
		"Must differ from the current password")
	if err := validator.Err(); err != nil {
		return err
	}

	principal, err := service.findPrincipal(ctx, input.Kind, input.PrincipalID)
	if err != nil {
		return err
	}

	matched, err := service.hasher.Verify(input.CurrentPassword, principal.PasswordHash)
	if err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_password_verify_failed: %w", err))
	}
	if !matched {
		return apperr.InvalidCredentials()
	}

	passwordHash, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	update := Update{PasswordHash: &passwordHash, ClearRefreshToken: true}
	if err := service.store.UpdateFields(ctx, input.Kind, principal.ID, update); err != nil {
		return service.updateError(input.Kind, "change_password", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "password_changed", slog.String("principal_id", principal.ID))
	service.publish(ctx, events.TypePasswordChanged, principal)
	return nil
}

// # Helpers

func (service *Service) findPrincipal(ctx context.Context, kind Kind, id string) (*Principal, error) {
	principal, err := service.store.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, apperr.PrincipalNotFound(kind.Label())
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_find_principal_failed: %w", err))
	}
	return principal, nil
}

func (service *Service) updateError(kind Kind, operation string, err error) error {
	if errors.Is(err, ErrPrincipalNotFound) {
		return apperr.PrincipalNotFound(kind.Label())
	}
	return apperr.Internal(fmt.Errorf("auth_service_%s_failed: %w", operation, err))
}

// publish never fails the caller: a broker outage only costs the event.
func (service *Service) publish(ctx context.Context, eventType string, principal *Principal) {
	event := events.Event{
		Type:          eventType,
		PrincipalID:   principal.ID,
		Kind:          string(principal.Kind),
		CredentialKey: principal.CredentialKey,
		OccurredAt:    service.now().UTC(),
	}

	if err := service.publisher.Publish(ctx, event); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_event_publish_failed",
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}

func (service *Service) observe(operation string, kind Kind, err *error) {
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		outcome = metrics.OutcomeFailure
		if appError := apperr.As(*err); appError != nil {
			outcome = appError.Code
		}
	}
	service.metrics.Observe(operation, string(kind), outcome)
}
