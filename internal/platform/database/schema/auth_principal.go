// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns queried by the Postgres stores,
// so SQL text and migrations share one spelling.
package schema

// AuthPrincipalTable represents the 'auth.principal' table
type AuthPrincipalTable struct {
	Table         string
	ID            string
	Kind          string
	CredentialKey string
	PasswordHash  string
	Role          string
	RefreshToken  string
	Profile       string
	CreatedAt     string
	UpdatedAt     string

	// UniqueCredentialKey is the unique constraint over (kind, credentialkey).
	UniqueCredentialKey string
}

// AuthPrincipal is the schema definition for auth.principal
var AuthPrincipal = AuthPrincipalTable{
	Table:               "auth.principal",
	ID:                  "id",
	Kind:                "kind",
	CredentialKey:       "credentialkey",
	PasswordHash:        "passwordhash",
	Role:                "role",
	RefreshToken:        "refreshtoken",
	Profile:             "profile",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
	UniqueCredentialKey: "principal_kind_credentialkey_key",
}

// Columns returns all standard column names, in scan order
func (t AuthPrincipalTable) Columns() []string {
	return []string{
		t.ID, t.Kind, t.CredentialKey, t.PasswordHash, t.Role, t.RefreshToken, t.Profile, t.CreatedAt, t.UpdatedAt,
	}
}
