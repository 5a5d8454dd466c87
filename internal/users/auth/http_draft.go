// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	requestutil "github.com/taibuivan/tutora/internal/platform/request"
	"github.com/taibuivan/tutora/internal/platform/respond"
)

type startDraftRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
POST /api/v1/tutors/register/drafts.

Response:
  - 201: DraftTicket: Draft token and expiry
  - 400: VALIDATION_ERROR
  - 409: DUPLICATE_CREDENTIAL
*/
func (handler *Handler) startDraft(writer http.ResponseWriter, request *http.Request) {
	var body startDraftRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.authService.StartTutorDraft(request.Context(), DraftStartInput{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, ticket)
}

/*
PUT /api/v1/tutors/register/drafts/{draftToken}/personal.

Response:
  - 200: DraftTicket: TTL restarted
  - 400: VALIDATION_ERROR
  - 404: NOT_FOUND: Unknown or expired draft
*/
func (handler *Handler) updateDraftPersonal(writer http.ResponseWriter, request *http.Request) {
	var body TutorPersonal
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.authService.UpdateTutorDraftPersonal(request.Context(), requestutil.Param(request, FieldDraftToken), body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, ticket)
}

// PUT /api/v1/tutors/register/drafts/{draftToken}/teaching.
func (handler *Handler) updateDraftTeaching(writer http.ResponseWriter, request *http.Request) {
	var body TutorTeaching
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.authService.UpdateTutorDraftTeaching(request.Context(), requestutil.Param(request, FieldDraftToken), body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, ticket)
}

/*
POST /api/v1/tutors/register/drafts/{draftToken}/complete.

Response:
  - 201: RegisterResult: Access token and the new tutor
  - 400: VALIDATION_ERROR: Incomplete profile
  - 404: NOT_FOUND: Unknown or expired draft
  - 409: DUPLICATE_CREDENTIAL
*/
func (handler *Handler) completeDraft(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.authService.CompleteTutorDraft(request.Context(), requestutil.Param(request, FieldDraftToken))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}
