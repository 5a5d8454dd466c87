// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/respond"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/users/account"
	"github.com/taibuivan/tutora/internal/users/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	store   *auth.MemoryStore
	service *account.Service
	router  chi.Router
	tokens  *sec.TokenService
	student *auth.Principal
	tutor   *auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	tokens, err := sec.NewTokenService(testSecret, "tutora.test", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	store := auth.NewMemoryStore()
	student := &auth.Principal{
		CredentialKey: "alice",
		PasswordHash:  "$2a$04$digest",
		Role:          sec.RoleStudent,
		Profile:       auth.Profile{Student: &auth.StudentProfile{Name: "Alice"}},
	}
	_, err = store.Insert(ctx, auth.KindStudent, student)
	require.NoError(t, err)

	tutor := &auth.Principal{
		CredentialKey: "bob",
		PasswordHash:  "$2a$04$digest",
		Role:          sec.RoleTeacher,
		Profile: auth.Profile{Tutor: &auth.TutorProfile{
			Name: "Bob", Email: "bob@example.com", Bio: "Physics tutor",
			Subjects: []auth.Subject{{Name: "Physics"}},
		}},
	}
	_, err = store.Insert(ctx, auth.KindTutor, tutor)
	require.NoError(t, err)

	service := account.NewService(store)
	handler := account.NewHandler(service, tokens)

	router := chi.NewRouter()
	router.Mount("/api/v1/me", handler.Routes())
	router.Mount("/api/v1/students/me", handler.StudentRoutes())
	router.Mount("/api/v1/tutors/me", handler.TutorRoutes())

	return &fixture{store: store, service: service, router: router, tokens: tokens, student: student, tutor: tutor}
}

func (f *fixture) token(t *testing.T, principal *auth.Principal) string {
	t.Helper()
	token, err := f.tokens.IssueAccessToken(principal.ID, principal.CredentialKey, principal.Role, string(principal.Kind))
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

/*
TestService_UpdateStudentProfile verifies validation and full replacement.
*/
func TestService_UpdateStudentProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateStudentProfile(ctx, f.student.ID, auth.StudentProfile{Name: " ", Email: "nope"})
	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeValidation, appError.Code)
	fields := []string{}
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.ElementsMatch(t, []string{"profile.name", "profile.email"}, fields)

	updated, err := f.service.UpdateStudentProfile(ctx, f.student.ID, auth.StudentProfile{Name: "Alice Nguyen", MotherLanguage: "Vietnamese"})
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", updated.Profile.Student.Name)

	stored, err := f.store.FindByID(ctx, auth.KindStudent, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vietnamese", stored.Profile.Student.MotherLanguage)
	assert.Equal(t, "$2a$04$digest", stored.PasswordHash)

	_, err = f.service.UpdateStudentProfile(ctx, f.tutor.ID, auth.StudentProfile{Name: "Bob"})
	assert.True(t, apperr.HasCode(err, apperr.CodePrincipalNotFound))
}

/*
TestService_UpdateTutorSubjects verifies that only the subjects change.
*/
func TestService_UpdateTutorSubjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateTutorSubjects(ctx, f.tutor.ID, []auth.Subject{{Name: ""}})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	updated, err := f.service.UpdateTutorSubjects(ctx, f.tutor.ID, []auth.Subject{
		{Name: " Chemistry ", Level: "A-level"},
		{Name: "Biology"},
	})
	require.NoError(t, err)
	assert.Equal(t, []auth.Subject{{Name: "Chemistry", Level: "A-level"}, {Name: "Biology"}}, updated.Profile.Tutor.Subjects)

	stored, err := f.store.FindByID(ctx, auth.KindTutor, f.tutor.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Profile.Tutor.Subjects, 2)
	assert.Equal(t, "Physics tutor", stored.Profile.Tutor.Bio)

	updated, err = f.service.UpdateTutorSubjects(ctx, f.tutor.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Profile.Tutor.Subjects)
}

/*
TestService_UpdateTutorPersonal verifies that personal details are trimmed,
validated and stored without touching the teaching details.
*/
func TestService_UpdateTutorPersonal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateTutorPersonal(ctx, f.tutor.ID, auth.TutorPersonal{Name: " ", Email: "nope", Gender: "x"})
	appError := apperr.As(err)
	require.NotNil(t, appError)
	fields := []string{}
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "gender"}, fields)

	updated, err := f.service.UpdateTutorPersonal(ctx, f.tutor.ID, auth.TutorPersonal{
		Name: " Bob Tran ", Email: " bob.tran@example.com ", City: " Hue ", Gender: "male",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob Tran", updated.Profile.Tutor.Name)

	stored, err := f.store.FindByID(ctx, auth.KindTutor, f.tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob.tran@example.com", stored.Profile.Tutor.Email)
	assert.Equal(t, "Hue", stored.Profile.Tutor.City)
	assert.Equal(t, "Physics tutor", stored.Profile.Tutor.Bio)
	assert.Equal(t, []auth.Subject{{Name: "Physics"}}, stored.Profile.Tutor.Subjects)

	_, err = f.service.UpdateTutorPersonal(ctx, f.student.ID, auth.TutorPersonal{Name: "Alice", Email: "a@example.com"})
	assert.True(t, apperr.HasCode(err, apperr.CodePrincipalNotFound))
}

/*
TestService_UpdateTutorLanguages verifies trimming and the blank-entry rule.
*/
func TestService_UpdateTutorLanguages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateTutorLanguages(ctx, f.tutor.ID, []string{"English", "  "})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	updated, err := f.service.UpdateTutorLanguages(ctx, f.tutor.ID, []string{" Vietnamese ", "English"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Vietnamese", "English"}, updated.Profile.Tutor.Languages)
	assert.Equal(t, "Bob", updated.Profile.Tutor.Name)
}

/*
TestHTTP_Me verifies that any authenticated principal reads its own record
and that secrets never leave the service.
*/
func TestHTTP_Me(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(http.MethodGet, "/api/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	for _, principal := range []*auth.Principal{f.student, f.tutor} {
		recorder := f.do(http.MethodGet, "/api/v1/me", "", f.token(t, principal))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
		assert.Contains(t, recorder.Body.String(), `"username":"`+principal.CredentialKey+`"`)
		assert.NotContains(t, recorder.Body.String(), "digest")
	}

	orphan, err := f.tokens.IssueAccessToken("0190a4b2-0000-7000-8000-000000000000", "ghost", sec.RoleStudent, "student")
	require.NoError(t, err)
	recorder = f.do(http.MethodGet, "/api/v1/me", "", orphan)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, apperr.CodePrincipalNotFound, errorCode(t, recorder))
}

/*
TestHTTP_RoleGates verifies that each kind-specific route admits only its role.
*/
func TestHTTP_RoleGates(t *testing.T) {
	f := newFixture(t)
	studentToken := f.token(t, f.student)
	tutorToken := f.token(t, f.tutor)

	tests := []struct {
		name       string
		path       string
		body       string
		bearer     string
		wantStatus int
	}{
		{"Student updates profile", "/api/v1/students/me/profile", `{"name":"Alice N"}`, studentToken, http.StatusOK},
		{"Tutor on student route", "/api/v1/students/me/profile", `{"name":"Bob"}`, tutorToken, http.StatusForbidden},
		{"Tutor updates subjects", "/api/v1/tutors/me/subjects", `{"subjects":[{"name":"Maths"}]}`, tutorToken, http.StatusOK},
		{"Student on tutor route", "/api/v1/tutors/me/subjects", `{"subjects":[]}`, studentToken, http.StatusForbidden},
		{"Tutor updates personal", "/api/v1/tutors/me/personal", `{"name":"Bob","email":"bob@example.com"}`, tutorToken, http.StatusOK},
		{"Student on tutor personal", "/api/v1/tutors/me/personal", `{"name":"Alice","email":"a@example.com"}`, studentToken, http.StatusForbidden},
		{"Tutor updates languages", "/api/v1/tutors/me/languages", `{"languages":["English"]}`, tutorToken, http.StatusOK},
		{"Trailing data", "/api/v1/tutors/me/languages", `{"languages":["English"]} extra`, tutorToken, http.StatusBadRequest},
		{"Anonymous", "/api/v1/tutors/me/subjects", `{"subjects":[]}`, "", http.StatusUnauthorized},
		{"Invalid body", "/api/v1/students/me/profile", `{"nickname":"x"}`, studentToken, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := f.do(http.MethodPut, tt.path, tt.body, tt.bearer)
			assert.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())
		})
	}
}
