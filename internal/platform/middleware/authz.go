// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/constants"
	"github.com/taibuivan/tutora/internal/platform/ctxutil"
	"github.com/taibuivan/tutora/internal/platform/respond"
	"github.com/taibuivan/tutora/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the concrete
// [sec.TokenService], allowing tests to inject stubs.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*sec.Claims, error)
}

// Authenticate verifies the bearer access token of a protected request.
//
// # Flow
//  1. Require 'Authorization: Bearer <token>' exactly. Anything else is 401 AUTH_HEADER_MISSING.
//  2. Verify the token statelessly via [TokenVerifier].
//  3. Expired tokens are 401 TOKEN_EXPIRED so the client knows to refresh; every
//     other failure is 403 TOKEN_INVALID.
//  4. Inject [*sec.Claims] and a principal-scoped logger into the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Format Validation ──────────────────────────────────────────
			token, ok := BearerToken(request.Header.Get(constants.HeaderAuthorization))
			if !ok {
				respond.Error(writer, request, apperr.AuthHeaderMissing())
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccessToken(token)
			if err != nil {
				if !apperr.HasCode(err, apperr.CodeTokenExpired) {
					err = apperr.TokenInvalid(err)
				}
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(
				slog.String("principal_id", claims.PrincipalID),
				slog.String("role", string(claims.Role)),
			))

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole admits only principals whose role is in the allowed set.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. A request without
// claims is rejected with 401; a role outside the set with 403 FORBIDDEN.
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !claims.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("Forbidden - Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
//
// The value must be exactly "Bearer " followed by a non-empty token without
// further whitespace.
func BearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, constants.BearerPrefix)
	if !found || token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}
