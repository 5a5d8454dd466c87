// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/middleware"
	requestutil "github.com/taibuivan/tutora/internal/platform/request"
	"github.com/taibuivan/tutora/internal/platform/respond"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/users/auth"
)

// Handler implements the HTTP layer for the principal's own record.
type Handler struct {
	accountService *Service
	authenticate   func(http.Handler) http.Handler
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, verifier middleware.TokenVerifier) *Handler {
	return &Handler{
		accountService: service,
		authenticate:   middleware.Authenticate(verifier),
	}
}

// Routes returns the shared routes, mounted at /api/v1/me.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.authenticate, middleware.RequireRole(sec.RoleStudent, sec.RoleTeacher))

	router.Get("/", handler.getMe)

	return router
}

// StudentRoutes returns the student-only routes, mounted at /api/v1/students/me.
func (handler *Handler) StudentRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.authenticate, middleware.RequireRole(sec.RoleStudent))

	router.Put("/profile", handler.updateStudentProfile)

	return router
}

// TutorRoutes returns the tutor-only routes, mounted at /api/v1/tutors/me.
func (handler *Handler) TutorRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.authenticate, middleware.RequireRole(sec.RoleTeacher))

	router.Put("/subjects", handler.updateTutorSubjects)
	router.Put("/personal", handler.updateTutorPersonal)
	router.Put("/languages", handler.updateTutorLanguages)

	return router
}

// # Profile Endpoints

/*
GET /api/v1/me.

Description: Returns the record of the authenticated principal. The kind is
derived from the token role.

Response:
  - 200: Principal: Record without password digest or refresh token
  - 401: AUTH_HEADER_MISSING / TOKEN_EXPIRED
  - 404: PRINCIPAL_NOT_FOUND: The record no longer exists
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	kind, err := auth.KindForRole(claims.Role)
	if err != nil {
		respond.Error(writer, request, apperr.Forbidden("Forbidden - Insufficient permissions"))
		return
	}

	principal, err := handler.accountService.GetProfile(request.Context(), kind, claims.PrincipalID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
PUT /api/v1/students/me/profile.

Request:
  - body: auth.StudentProfile (full replacement)

Response:
  - 200: Principal: The updated record
  - 400: VALIDATION_ERROR
  - 403: FORBIDDEN: Not a student
*/
func (handler *Handler) updateStudentProfile(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body auth.StudentProfile
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.UpdateStudentProfile(request.Context(), claims.PrincipalID, body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
PUT /api/v1/tutors/me/subjects.

Request:
  - body: {subjects: [{name, level}]}

Response:
  - 200: Principal: The updated record
  - 400: VALIDATION_ERROR
  - 403: FORBIDDEN: Not a tutor
*/
func (handler *Handler) updateTutorSubjects(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body SubjectsInput
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.UpdateTutorSubjects(request.Context(), claims.PrincipalID, body.Subjects)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
PUT /api/v1/tutors/me/personal.

Request:
  - body: auth.TutorPersonal (full replacement of the personal details)

Response:
  - 200: Principal: The updated record
  - 400: VALIDATION_ERROR
  - 403: FORBIDDEN: Not a tutor
*/
func (handler *Handler) updateTutorPersonal(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body auth.TutorPersonal
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.UpdateTutorPersonal(request.Context(), claims.PrincipalID, body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

// updateTutorLanguages handles PUT /api/v1/tutors/me/languages with {languages: []}.
func (handler *Handler) updateTutorLanguages(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body LanguagesInput
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.UpdateTutorLanguages(request.Context(), claims.PrincipalID, body.Languages)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}
