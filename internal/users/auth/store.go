// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"
)

// # Sentinels

var (
	// ErrPrincipalNotFound is returned when no principal matches a lookup or update.
	ErrPrincipalNotFound = errors.New("auth: principal not found")

	// ErrDuplicateCredentialKey is returned by Insert when the key is taken within its kind.
	ErrDuplicateCredentialKey = errors.New("auth: duplicate credential key")

	// ErrDraftNotFound is returned when a registration draft is unknown or expired.
	ErrDraftNotFound = errors.New("auth: registration draft not found")
)

// # Credential Data Access

// CredentialStore persists principals of both kinds.
//
// Every operation is a single-record read or read-modify-write. Concurrent
// writers to the same principal resolve as last write wins.
type CredentialStore interface {

	/*
		FindByCredentialKey returns the principal of kind with the exact key.

		Returns:
		  - *Principal: A copy owned by the caller
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByCredentialKey(ctx context.Context, kind Kind, key string) (*Principal, error)

	/*
		FindByID returns the principal of kind with the given id.

		Returns:
		  - *Principal: A copy owned by the caller
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByID(ctx context.Context, kind Kind, id string) (*Principal, error)

	/*
		Insert persists a new principal. An empty ID is assigned by the store.

		Returns:
		  - string: The principal id
		  - error: ErrDuplicateCredentialKey or storage failures
	*/
	Insert(ctx context.Context, kind Kind, principal *Principal) (string, error)

	/*
		UpdateFields applies a partial update to one principal.

		Returns:
		  - error: ErrPrincipalNotFound or storage failures
	*/
	UpdateFields(ctx context.Context, kind Kind, id string, update Update) error
}

// # Volatile Data Access

// DraftStore keeps multi-step registration drafts until they complete or expire.
// Keys are token digests, never the raw draft token.
type DraftStore interface {
	Save(ctx context.Context, tokenHash string, draft *Draft, ttl time.Duration) error
	Get(ctx context.Context, tokenHash string) (*Draft, error)
	Delete(ctx context.Context, tokenHash string) error
}
