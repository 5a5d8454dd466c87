// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tutora/internal/platform/database/schema"
	"github.com/taibuivan/tutora/internal/platform/dberr"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/pkg/uuid"
)

var (
	principalTable   = schema.AuthPrincipal
	principalColumns = strings.Join(principalTable.Columns(), ", ")
)

// PostgresStore implements [CredentialStore] on the auth.principal table.
// The profile column is JSONB, so a principal stays a single document.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
FindByCredentialKey looks a principal up by its exact key within kind.

Returns:
  - *Principal: Hydrated entity
  - error: ErrPrincipalNotFound or database errors
*/
func (store *PostgresStore) FindByCredentialKey(ctx context.Context, kind Kind, key string) (*Principal, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = $2`,
		principalColumns, principalTable.Table, principalTable.Kind, principalTable.CredentialKey,
	)

	principal, err := scanPrincipal(store.pool.QueryRow(ctx, query, string(kind), key))
	if err != nil {
		return nil, store.wrap("find_by_key", err)
	}
	return principal, nil
}

/*
FindByID looks a principal up by id within kind. An id that is not a UUID
cannot exist and is reported as not found without a query.
*/
func (store *PostgresStore) FindByID(ctx context.Context, kind Kind, id string) (*Principal, error) {
	if !uuid.Valid(id) {
		return nil, ErrPrincipalNotFound
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = $2`,
		principalColumns, principalTable.Table, principalTable.Kind, principalTable.ID,
	)

	principal, err := scanPrincipal(store.pool.QueryRow(ctx, query, string(kind), id))
	if err != nil {
		return nil, store.wrap("find_by_id", err)
	}
	return principal, nil
}

/*
Insert persists a new principal and returns its id.

A violation of the (kind, credentialkey) unique index is reported as
ErrDuplicateCredentialKey, which covers two registrations racing past the
service-level duplicate check.
*/
func (store *PostgresStore) Insert(ctx context.Context, kind Kind, principal *Principal) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		principalTable.Table, principalColumns,
	)

	if principal.ID == "" {
		principal.ID = uuid.New()
	}
	principal.Kind = kind
	now := time.Now().UTC()

	_, err := store.pool.Exec(ctx, query,
		principal.ID,
		string(kind),
		principal.CredentialKey,
		principal.PasswordHash,
		string(principal.Role),
		principal.RefreshToken,
		principal.Profile,
		now,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err, principalTable.UniqueCredentialKey) {
			return "", ErrDuplicateCredentialKey
		}
		return "", fmt.Errorf("postgres_principal_insert_failed: %w", err)
	}

	principal.CreatedAt = now
	principal.UpdatedAt = now
	return principal.ID, nil
}

/*
UpdateFields writes only the columns present in update, plus updatedat.
*/
func (store *PostgresStore) UpdateFields(ctx context.Context, kind Kind, id string, update Update) error {
	if !uuid.Valid(id) {
		return ErrPrincipalNotFound
	}

	assignments := []string{principalTable.UpdatedAt + " = now()"}
	arguments := []any{string(kind), id}

	set := func(column string, value any) {
		arguments = append(arguments, value)
		assignments = append(assignments, column+" = $"+strconv.Itoa(len(arguments)))
	}

	if update.PasswordHash != nil {
		set(principalTable.PasswordHash, *update.PasswordHash)
	}
	switch {
	case update.RefreshToken != nil:
		set(principalTable.RefreshToken, *update.RefreshToken)
	case update.ClearRefreshToken:
		assignments = append(assignments, principalTable.RefreshToken+" = NULL")
	}
	if update.Profile != nil {
		set(principalTable.Profile, *update.Profile)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1 AND %s = $2`,
		principalTable.Table, strings.Join(assignments, ", "), principalTable.Kind, principalTable.ID,
	)

	tag, err := store.pool.Exec(ctx, query, arguments...)
	if err != nil {
		return fmt.Errorf("postgres_principal_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

func (store *PostgresStore) wrap(operation string, err error) error {
	if dberr.IsNoRows(err) {
		return ErrPrincipalNotFound
	}
	return fmt.Errorf("postgres_principal_%s_failed: %w", operation, err)
}

func scanPrincipal(row pgx.Row) (*Principal, error) {
	var (
		principal Principal
		kind      string
		role      string
	)

	err := row.Scan(
		&principal.ID,
		&kind,
		&principal.CredentialKey,
		&principal.PasswordHash,
		&role,
		&principal.RefreshToken,
		&principal.Profile,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	principal.Kind = Kind(kind)
	principal.Role = sec.Role(role)
	return &principal, nil
}
