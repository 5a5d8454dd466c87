// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/events"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/users/auth"
	"github.com/taibuivan/tutora/pkg/uuid"
)

/*
TestRegister_StoresOnlyADigest verifies that the stored hash is not the
plaintext, verifies against it, and rejects any other password.
*/
func TestRegister_StoresOnlyADigest(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	result, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)

	stored, err := f.store.FindByCredentialKey(ctx, auth.KindStudent, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "secret1")
	assert.Nil(t, stored.RefreshToken, "registration must not open a refresh session")
	assert.Equal(t, sec.RoleStudent, stored.Role)

	for password, want := range map[string]bool{"secret1": true, "secret2": false, "Secret1": false, "": false} {
		matched, err := f.hasher.Verify(password, stored.PasswordHash)
		require.NoError(t, err)
		assert.Equal(t, want, matched, "password %q", password)
	}

	claims, err := f.tokens.VerifyAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.PrincipalID)
	assert.Equal(t, "alice", claims.CredentialKey)
	assert.Equal(t, sec.RoleStudent, claims.Role)
}

/*
TestRegister_TutorGetsTeacherRole verifies the kind to role mapping.
*/
func TestRegister_TutorGetsTeacherRole(t *testing.T) {
	f := newFixture(t, auth.Options{})

	result, err := f.service.Register(context.Background(), tutorInput("bob", "secret1"))
	require.NoError(t, err)
	assert.Equal(t, sec.RoleTeacher, result.Principal.Role)
	assert.Equal(t, auth.KindTutor, result.Principal.Kind)
	require.NotNil(t, result.Principal.Profile.Tutor)
	assert.Equal(t, "Mathematics", result.Principal.Profile.Tutor.Subjects[0].Name)
}

/*
TestRegister_Duplicate verifies that a key is unique within its kind only.
*/
func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)

	_, err = f.service.Register(ctx, studentInput("alice", "another1"))
	appError := requireCode(t, err, apperr.CodeDuplicateCredential)
	assert.Equal(t, 409, appError.HTTPStatus)
	assert.Equal(t, 1, f.store.Len(auth.KindStudent))

	// Normalisation makes padded and decomposed spellings collide.
	_, err = f.service.Register(ctx, studentInput("  alice ", "secret1"))
	requireCode(t, err, apperr.CodeDuplicateCredential)

	// Matching is case-sensitive.
	_, err = f.service.Register(ctx, studentInput("Alice", "secret1"))
	require.NoError(t, err)

	// The other kind has its own key space.
	_, err = f.service.Register(ctx, tutorInput("alice", "secret1"))
	require.NoError(t, err)
}

/*
TestRegister_CollectsEveryError verifies collect-all validation and that no
record is created on failure.
*/
func TestRegister_CollectsEveryError(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	tests := []struct {
		name       string
		input      auth.RegisterInput
		wantFields []string
	}{
		{
			name:       "Everything missing",
			input:      auth.RegisterInput{Kind: auth.KindStudent},
			wantFields: []string{"username", "password", "profile"},
		},
		{
			name: "Short values",
			input: auth.RegisterInput{
				Kind: auth.KindStudent, Username: "al", Password: "12345",
				Profile: auth.Profile{Student: &auth.StudentProfile{Name: "   "}},
			},
			wantFields: []string{"username", "password", "profile.name"},
		},
		{
			name: "Username with spaces",
			input: auth.RegisterInput{
				Kind: auth.KindStudent, Username: "alice smith", Password: "secret1",
				Profile: auth.Profile{Student: &auth.StudentProfile{Name: "Alice", Email: "not-an-email"}},
			},
			wantFields: []string{"username", "profile.email"},
		},
		{
			name: "Tutor profile rules",
			input: auth.RegisterInput{
				Kind: auth.KindTutor, Username: "bob", Password: "secret1",
				Profile: auth.Profile{Tutor: &auth.TutorProfile{
					Name:     "Bob",
					Gender:   "unknown",
					Subjects: []auth.Subject{{Level: "beginner"}},
				}},
			},
			wantFields: []string{"profile.email", "profile.gender", "profile.subjects[0].name"},
		},
		{
			name: "Wrong profile side",
			input: auth.RegisterInput{
				Kind: auth.KindTutor, Username: "bob", Password: "secret1",
				Profile: auth.Profile{Student: &auth.StudentProfile{Name: "Bob"}},
			},
			wantFields: []string{"profile", "profile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(ctx, tt.input)
			appError := requireCode(t, err, apperr.CodeValidation)
			assert.ElementsMatch(t, tt.wantFields, fieldsOf(appError))
		})
	}

	assert.Zero(t, f.store.Len(auth.KindStudent))
	assert.Zero(t, f.store.Len(auth.KindTutor))
}

/*
TestRegister_PasswordOverBcryptLimit verifies that passwords bcrypt would
truncate are rejected instead of silently shortened.
*/
func TestRegister_PasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t, auth.Options{})

	long := make([]byte, auth.PasswordMaxBytes+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := f.service.Register(context.Background(), studentInput("alice", string(long)))
	appError := requireCode(t, err, apperr.CodeValidation)
	assert.Equal(t, []string{"password"}, fieldsOf(appError))
}

/*
TestLogin_FailuresAreIndistinguishable verifies that a wrong password and an
unknown account produce the same error.
*/
func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)

	_, wrongPassword := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "wrong-password"})
	_, unknownKey := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "mallory", Password: "secret1"})
	_, wrongKind := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindTutor, Username: "alice", Password: "secret1"})

	first := requireCode(t, wrongPassword, apperr.CodeInvalidCredentials)
	for _, err := range []error{unknownKey, wrongKind} {
		other := requireCode(t, err, apperr.CodeInvalidCredentials)
		assert.Equal(t, first.Message, other.Message)
		assert.Equal(t, first.HTTPStatus, other.HTTPStatus)
	}
	assert.Equal(t, 401, first.HTTPStatus)
}

// countingHasher records every digest Verify is asked to check.
type countingHasher struct {
	*sec.BcryptHasher
	verified []string
}

func (h *countingHasher) Verify(plainTextPassword, digest string) (bool, error) {
	h.verified = append(h.verified, digest)
	return h.BcryptHasher.Verify(plainTextPassword, digest)
}

/*
TestLogin_UnknownKeyPaysHashingCost verifies that a login for an unknown
username runs a full password verification, like a wrong password does.
*/
func TestLogin_UnknownKeyPaysHashingCost(t *testing.T) {
	f := newFixture(t, auth.Options{})
	hasher := &countingHasher{BcryptHasher: f.hasher}
	service := auth.NewService(f.store, nil, hasher, f.tokens, nil, nil, auth.Options{})
	ctx := context.Background()

	registered, err := service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	stored, err := f.store.FindByID(ctx, auth.KindStudent, registered.Principal.ID)
	require.NoError(t, err)

	_, err = service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "wrong-password"})
	requireCode(t, err, apperr.CodeInvalidCredentials)
	_, err = service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "mallory", Password: "wrong-password"})
	requireCode(t, err, apperr.CodeInvalidCredentials)

	require.Len(t, hasher.verified, 2)
	assert.Equal(t, stored.PasswordHash, hasher.verified[0])

	// The decoy is a real digest at the configured cost, never the empty string.
	decoy := hasher.verified[1]
	assert.NotEqual(t, stored.PasswordHash, decoy)
	cost, err := bcrypt.Cost([]byte(decoy))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

/*
TestSession_RefreshLogoutRevokes walks login, refresh, logout and a refresh
with the now stale token.
*/
func TestSession_RefreshLogoutRevokes(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)

	session, err := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, session.RefreshToken)

	refreshed, err := f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken, "no rotation by default")

	// Refresh is read-only: the same token keeps working.
	_, err = f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, auth.KindStudent, session.Principal.ID))

	_, err = f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
	appError := requireCode(t, err, apperr.CodeRefreshTokenRevoked)
	assert.Equal(t, 403, appError.HTTPStatus)
}

/*
TestLogin_OverwritesRefreshToken verifies that re-login revokes the token of
the previous login even though it has not expired.
*/
func TestLogin_OverwritesRefreshToken(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)

	login := auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"}
	first, err := f.service.Login(ctx, login)
	require.NoError(t, err)
	second, err := f.service.Login(ctx, login)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.service.Refresh(ctx, auth.KindStudent, first.RefreshToken)
	requireCode(t, err, apperr.CodeRefreshTokenRevoked)

	_, err = f.service.Refresh(ctx, auth.KindStudent, second.RefreshToken)
	require.NoError(t, err)
}

/*
TestRefresh_Failures covers every refresh rejection path.
*/
func TestRefresh_Failures(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	session, err := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	orphan, err := f.tokens.IssueRefreshToken(uuid.New(), string(auth.KindStudent))
	require.NoError(t, err)

	t.Run("Missing", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, auth.KindStudent, "  ")
		requireCode(t, err, apperr.CodeMissingInput)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, auth.KindStudent, "not.a.token")
		requireCode(t, err, apperr.CodeTokenInvalid)
	})

	t.Run("Access token presented", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, auth.KindStudent, session.AccessToken)
		requireCode(t, err, apperr.CodeTokenInvalid)
	})

	t.Run("Other kind", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, auth.KindTutor, session.RefreshToken)
		requireCode(t, err, apperr.CodeTokenInvalid)
	})

	t.Run("Unknown principal", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, auth.KindStudent, orphan)
		requireCode(t, err, apperr.CodePrincipalNotFound)
	})

	t.Run("Expired", func(t *testing.T) {
		f.clock.Advance(8 * 24 * time.Hour)
		_, err := f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
		appError := requireCode(t, err, apperr.CodeTokenExpired)
		assert.Equal(t, 401, appError.HTTPStatus)
	})
}

/*
TestRefresh_Rotation verifies that rotation revokes the presented token.
*/
func TestRefresh_Rotation(t *testing.T) {
	f := newFixture(t, auth.Options{RotateRefreshTokens: true})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	session, err := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	rotated, err := f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
	requireCode(t, err, apperr.CodeRefreshTokenRevoked)

	_, err = f.service.Refresh(ctx, auth.KindStudent, rotated.RefreshToken)
	require.NoError(t, err)
}

/*
TestLogout verifies idempotency and the error paths.
*/
func TestLogout(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	registered, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	id := registered.Principal.ID

	require.NoError(t, f.service.Logout(ctx, auth.KindStudent, id))
	require.NoError(t, f.service.Logout(ctx, auth.KindStudent, id))

	requireCode(t, f.service.Logout(ctx, auth.KindStudent, ""), apperr.CodeMissingInput)
	requireCode(t, f.service.Logout(ctx, auth.KindStudent, uuid.New()), apperr.CodePrincipalNotFound)
	requireCode(t, f.service.Logout(ctx, auth.KindTutor, id), apperr.CodePrincipalNotFound)
}

/*
TestChangePassword verifies the current password check, the new digest and
the refresh token reset.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	_, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	session, err := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	change := auth.ChangePasswordInput{Kind: auth.KindStudent, PrincipalID: session.Principal.ID}

	t.Run("Validation", func(t *testing.T) {
		input := change
		input.CurrentPassword, input.NewPassword = "secret1", "secret1"
		appError := requireCode(t, f.service.ChangePassword(ctx, input), apperr.CodeValidation)
		assert.Equal(t, []string{"newPassword"}, fieldsOf(appError))
	})

	t.Run("Wrong current password", func(t *testing.T) {
		input := change
		input.CurrentPassword, input.NewPassword = "nope-nope", "secret2"
		requireCode(t, f.service.ChangePassword(ctx, input), apperr.CodeInvalidCredentials)
	})

	t.Run("Success", func(t *testing.T) {
		input := change
		input.CurrentPassword, input.NewPassword = "secret1", "secret2"
		require.NoError(t, f.service.ChangePassword(ctx, input))

		_, err := f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
		requireCode(t, err, apperr.CodeRefreshTokenRevoked)

		_, err = f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"})
		requireCode(t, err, apperr.CodeInvalidCredentials)

		_, err = f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret2"})
		require.NoError(t, err)
	})
}

/*
TestService_EventsAndMetrics verifies the side channels of a session.
*/
func TestService_EventsAndMetrics(t *testing.T) {
	f := newFixture(t, auth.Options{})
	ctx := context.Background()

	registered, err := f.service.Register(ctx, studentInput("alice", "secret1"))
	require.NoError(t, err)
	session, err := f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	_, err = f.service.Refresh(ctx, auth.KindStudent, session.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, auth.KindStudent, registered.Principal.ID))
	_, err = f.service.Login(ctx, auth.LoginInput{Kind: auth.KindStudent, Username: "alice", Password: "bad-password"})
	require.Error(t, err)

	assert.Equal(t, []string{
		events.TypePrincipalRegistered,
		events.TypeSessionOpened,
		events.TypeSessionRefreshed,
		events.TypeSessionClosed,
	}, f.publisher.Types())

	operations := f.metrics.Operations()
	assert.Equal(t, 1.0, testutil.ToFloat64(operations.WithLabelValues(auth.OpLogin, "student", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(operations.WithLabelValues(auth.OpLogin, "student", apperr.CodeInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(operations.WithLabelValues(auth.OpRegister, "student", "success")))
}

/*
TestService_PublishFailureIsNotFatal verifies that a broker outage never fails
a session operation.
*/
func TestService_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, auth.Options{})
	f.publisher.err = errors.New("nats: connection closed")

	_, err := f.service.Register(context.Background(), studentInput("alice", "secret1"))
	require.NoError(t, err)
	assert.Empty(t, f.publisher.Types())
}

/*
TestNormalizeKey verifies trimming and NFC composition.
*/
func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "alice", auth.NormalizeKey("  alice\t"))
	assert.Equal(t, "josé", auth.NormalizeKey("josé"))
	assert.Equal(t, "Alice", auth.NormalizeKey("Alice"))
}

/*
TestKind covers the kind to role mapping in both directions.
*/
func TestKind(t *testing.T) {
	assert.Equal(t, sec.RoleStudent, auth.KindStudent.Role())
	assert.Equal(t, sec.RoleTeacher, auth.KindTutor.Role())
	assert.False(t, auth.Kind("admin").Valid())

	kind, err := auth.KindForRole(sec.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, auth.KindTutor, kind)

	_, err = auth.KindForRole(sec.Role("admin"))
	assert.Error(t, err)
}
