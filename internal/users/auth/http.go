// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tutora/internal/platform/middleware"
	requestutil "github.com/taibuivan/tutora/internal/platform/request"
	"github.com/taibuivan/tutora/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the session endpoints for one principal kind at a time.
//
// # Scope
//
// The same handler serves /students and /tutors; the kind is fixed when the
// routes are built, so a request can never cross kinds.
type Handler struct {
	authService  *Service
	authenticate func(http.Handler) http.Handler
	limit        func(http.Handler) http.Handler
}

// NewHandler constructs a [Handler]. A nil limiter leaves the credential
// endpoints unthrottled (the global limiter still applies).
func NewHandler(service *Service, verifier middleware.TokenVerifier, limiter *middleware.RateLimiter) *Handler {
	handler := &Handler{
		authService:  service,
		authenticate: middleware.Authenticate(verifier),
		limit:        func(next http.Handler) http.Handler { return next },
	}
	if limiter != nil {
		handler.limit = limiter.Handler
	}
	return handler
}

// Routes returns a [chi.Router] with the session endpoints of kind.
//
// # Endpoints
//   - POST /register        : Creates a principal and returns an access token.
//   - POST /login           : Returns an access and a refresh token.
//   - POST /refresh-token   : Exchanges a refresh token for an access token.
//   - POST /logout          : Clears the stored refresh token.
//   - POST /change-password : Authenticated, role-gated password change.
//   - /register/drafts/...  : Multi-step registration (tutors only).
func (handler *Handler) Routes(kind Kind) chi.Router {
	router := chi.NewRouter()

	// Credential endpoints share the strict per-IP limiter
	router.Group(func(r chi.Router) {
		r.Use(handler.limit)
		r.Post("/register", handler.register(kind))
		r.Post("/login", handler.login(kind))
		r.Post("/refresh-token", handler.refresh(kind))

		if kind == KindTutor {
			r.Route("/register/drafts", func(r chi.Router) {
				r.Post("/", handler.startDraft)
				r.Put("/{draftToken}/personal", handler.updateDraftPersonal)
				r.Put("/{draftToken}/teaching", handler.updateDraftTeaching)
				r.Post("/{draftToken}/complete", handler.completeDraft)
			})
		}
	})

	router.Post("/logout", handler.logout(kind))

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.authenticate, middleware.RequireRole(kind.Role()), handler.limit)
		r.Post("/change-password", handler.changePassword(kind))
	})

	return router
}

// # Request Payloads

type studentRegisterRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Profile  *StudentProfile `json:"profile"`
}

type tutorRegisterRequest struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Profile  *TutorProfile `json:"profile"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	PrincipalID string `json:"principalId"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

/*
POST /api/v1/{students|tutors}/register.

Description: Validates every field, rejects a taken username, and persists
the principal. The client is logged in right away with an access token.

Request:
  - Body: {username, password, profile}

Response:
  - 201: RegisterResult: Access token and principal
  - 400: VALIDATION_ERROR: Every failing field in details
  - 409: DUPLICATE_CREDENTIAL: Username already registered for this kind
*/
func (handler *Handler) register(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		input := RegisterInput{Kind: kind}

		switch kind {
		case KindTutor:
			var body tutorRegisterRequest
			if err := requestutil.DecodeJSON(request, &body); err != nil {
				respond.Error(writer, request, err)
				return
			}
			input.Username, input.Password = body.Username, body.Password
			input.Profile.Tutor = body.Profile
		default:
			var body studentRegisterRequest
			if err := requestutil.DecodeJSON(request, &body); err != nil {
				respond.Error(writer, request, err)
				return
			}
			input.Username, input.Password = body.Username, body.Password
			input.Profile.Student = body.Profile
		}

		result, err := handler.authService.Register(request.Context(), input)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.Created(writer, result)
	}
}

/*
POST /api/v1/{students|tutors}/login.

Response:
  - 200: LoginResult: Access token, refresh token and principal
  - 401: INVALID_CREDENTIALS: Unknown username or wrong password
*/
func (handler *Handler) login(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var body loginRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}

		result, err := handler.authService.Login(request.Context(), LoginInput{
			Kind:     kind,
			Username: body.Username,
			Password: body.Password,
		})
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, result)
	}
}

/*
POST /api/v1/{students|tutors}/refresh-token.

Response:
  - 200: RefreshResult: New access token
  - 400: MISSING_INPUT: No refresh token in the body
  - 401: TOKEN_EXPIRED
  - 403: TOKEN_INVALID or REFRESH_TOKEN_REVOKED
  - 404: PRINCIPAL_NOT_FOUND
*/
func (handler *Handler) refresh(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var body refreshRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}

		result, err := handler.authService.Refresh(request.Context(), kind, body.RefreshToken)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.OK(writer, result)
	}
}

/*
POST /api/v1/{students|tutors}/logout.

Response:
  - 200: Message: Logged out
  - 404: PRINCIPAL_NOT_FOUND
*/
func (handler *Handler) logout(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var body logoutRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}

		if err := handler.authService.Logout(request.Context(), kind, body.PrincipalID); err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.Message(writer, "Logged out successfully")
	}
}

/*
POST /api/v1/{students|tutors}/change-password.

Description: Requires a bearer access token of the kind's role. The stored
refresh token is cleared, so other devices must log in again.

Response:
  - 200: Message: Password changed
  - 400: VALIDATION_ERROR
  - 401: INVALID_CREDENTIALS: Wrong current password
*/
func (handler *Handler) changePassword(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		claims, err := requestutil.RequiredClaims(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		var body changePasswordRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}

		err = handler.authService.ChangePassword(request.Context(), ChangePasswordInput{
			Kind:            kind,
			PrincipalID:     claims.PrincipalID,
			CurrentPassword: body.CurrentPassword,
			NewPassword:     body.NewPassword,
		})
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.Message(writer, "Password changed successfully")
	}
}
