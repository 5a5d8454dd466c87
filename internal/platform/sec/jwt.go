// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// session manager and the request authenticator through small interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/pkg/uuid"
)

// MinSecretLength is the shortest signing secret accepted for HS256.
const MinSecretLength = 32

// TokenType separates access tokens from refresh tokens signed with the same key.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims represents the payload embedded inside both token types.
//
// # Why custom claims?
//
// Access tokens carry the principal id, credential key and role so that
// [middleware.Authenticate] can rebuild the caller identity without a store
// lookup. Refresh tokens leave CredentialKey and Role empty.
type Claims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	PrincipalID   string    `json:"uid"`
	CredentialKey string    `json:"key,omitempty"`
	Role          Role      `json:"rol,omitempty"`
	Type          TokenType `json:"typ"`
}

// PrincipalKind returns the first audience entry, which holds the principal kind.
func (c *Claims) PrincipalKind() string {
	if len(c.RegisteredClaims.Audience) == 0 {
		return ""
	}
	return c.RegisteredClaims.Audience[0]
}

// TokenOption customises a [TokenService].
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// TokenService handles generation and verification of JWT tokens using HS256
// and a single configured secret.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
//
// There is no default secret: an empty or short secret is a startup error.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration, options ...TokenOption) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: signing secret must be at least %d bytes", MinSecretLength)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("auth: token lifetimes must be positive")
	}

	service := &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service, nil
}

// IssueAccessToken creates a short-lived token carrying the caller identity.
func (service *TokenService) IssueAccessToken(principalID, credentialKey string, role Role, audience string) (string, error) {
	return service.sign(Claims{
		RegisteredClaims: service.registered(principalID, audience, service.accessTTL),
		PrincipalID:      principalID,
		CredentialKey:    credentialKey,
		Role:             role,
		Type:             TokenAccess,
	})
}

// IssueRefreshToken creates a long-lived token bound to the principal only.
func (service *TokenService) IssueRefreshToken(principalID, audience string) (string, error) {
	return service.sign(Claims{
		RegisteredClaims: service.registered(principalID, audience, service.refreshTTL),
		PrincipalID:      principalID,
		Type:             TokenRefresh,
	})
}

// Verify checks signature, issuer, expiry and token type.
//
// An expired token fails with an [apperr.CodeTokenExpired] error. Every other
// failure, including a type or audience mismatch, fails with
// [apperr.CodeTokenInvalid]. An empty audience skips the audience check.
func (service *TokenService) Verify(tokenString string, expected TokenType, audience string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	}
	if audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(audience))
	}

	token, err := jwt.NewParser(parserOptions...).ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return service.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.TokenExpired(err)
		}
		return nil, apperr.TokenInvalid(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperr.TokenInvalid(errors.New("auth: invalid token claims"))
	}
	if claims.Type != expected {
		return nil, apperr.TokenInvalid(fmt.Errorf("auth: expected %s token, got %q", expected, claims.Type))
	}
	if claims.PrincipalID == "" {
		return nil, apperr.TokenInvalid(errors.New("auth: token has no principal"))
	}

	return claims, nil
}

// VerifyAccessToken verifies a token presented on a protected request.
func (service *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return service.Verify(tokenString, TokenAccess, "")
}

// VerifyRefreshToken verifies a refresh token issued to the given principal kind.
func (service *TokenService) VerifyRefreshToken(tokenString, audience string) (*Claims, error) {
	return service.Verify(tokenString, TokenRefresh, audience)
}

func (service *TokenService) registered(principalID, audience string, timeToLive time.Duration) jwt.RegisteredClaims {
	currentTime := service.now()
	return jwt.RegisteredClaims{
		ID:        uuid.New(),
		Subject:   principalID,
		Issuer:    service.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}
}

func (service *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return signedToken, nil
}
