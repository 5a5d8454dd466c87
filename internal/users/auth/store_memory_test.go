// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/users/auth"
)

func newStudent(key string) *auth.Principal {
	return &auth.Principal{
		Kind:          auth.KindStudent,
		CredentialKey: key,
		PasswordHash:  "$2a$04$digest",
		Role:          sec.RoleStudent,
		Profile:       auth.Profile{Student: &auth.StudentProfile{Name: "Alice"}},
	}
}

/*
TestMemoryStore_InsertAndFind verifies id assignment, lookup by both keys
and the per-kind key space.
*/
func TestMemoryStore_InsertAndFind(t *testing.T) {
	store := auth.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, auth.KindStudent, newStudent("alice"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	byKey, err := store.FindByCredentialKey(ctx, auth.KindStudent, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byKey.ID)
	assert.False(t, byKey.CreatedAt.IsZero())

	byID, err := store.FindByID(ctx, auth.KindStudent, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.CredentialKey)

	_, err = store.FindByID(ctx, auth.KindTutor, id)
	assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)
	_, err = store.FindByCredentialKey(ctx, auth.KindTutor, "alice")
	assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)

	_, err = store.Insert(ctx, auth.KindStudent, newStudent("alice"))
	assert.ErrorIs(t, err, auth.ErrDuplicateCredentialKey)
	assert.Equal(t, 1, store.Len(auth.KindStudent))

	_, err = store.Insert(ctx, auth.Kind("admin"), newStudent("root"))
	assert.Error(t, err)
}

/*
TestMemoryStore_ReturnsCopies verifies that callers cannot mutate stored state.
*/
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := auth.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, auth.KindStudent, newStudent("alice"))
	require.NoError(t, err)

	found, err := store.FindByID(ctx, auth.KindStudent, id)
	require.NoError(t, err)
	found.PasswordHash = "tampered"
	found.Profile.Student.Name = "Mallory"

	again, err := store.FindByID(ctx, auth.KindStudent, id)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$digest", again.PasswordHash)
	assert.Equal(t, "Alice", again.Profile.Student.Name)
}

/*
TestMemoryStore_UpdateFields verifies partial updates and the refresh token reset.
*/
func TestMemoryStore_UpdateFields(t *testing.T) {
	store := auth.NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, auth.KindStudent, newStudent("alice"))
	require.NoError(t, err)

	token := "refresh-1"
	require.NoError(t, store.UpdateFields(ctx, auth.KindStudent, id, auth.Update{RefreshToken: &token}))

	found, err := store.FindByID(ctx, auth.KindStudent, id)
	require.NoError(t, err)
	require.NotNil(t, found.RefreshToken)
	assert.Equal(t, "refresh-1", *found.RefreshToken)
	assert.Equal(t, "$2a$04$digest", found.PasswordHash)

	require.NoError(t, store.UpdateFields(ctx, auth.KindStudent, id, auth.Update{ClearRefreshToken: true}))
	found, err = store.FindByID(ctx, auth.KindStudent, id)
	require.NoError(t, err)
	assert.Nil(t, found.RefreshToken)

	err = store.UpdateFields(ctx, auth.KindStudent, "missing", auth.Update{ClearRefreshToken: true})
	assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)
}
