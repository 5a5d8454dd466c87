// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account serves the authenticated principal's own record.

It reads the principal behind an access token and replaces the
kind-specific parts of its profile. Credentials and sessions stay in the
auth package; this package never touches the password or the refresh token.

# Security

Every endpoint requires a bearer access token. The student and tutor routes
are additionally gated to the role of their kind.
*/
package account

import (
	"context"

	"github.com/taibuivan/tutora/internal/users/auth"
)

// Store is the part of [auth.CredentialStore] the account service needs.
type Store interface {
	FindByID(ctx context.Context, kind auth.Kind, id string) (*auth.Principal, error)
	UpdateFields(ctx context.Context, kind auth.Kind, id string, update auth.Update) error
}

// SubjectsInput replaces the subject list of a tutor.
type SubjectsInput struct {
	Subjects []auth.Subject `json:"subjects" validate:"max=50,dive"`
}

// LanguagesInput replaces the teaching languages of a tutor.
type LanguagesInput struct {
	Languages []string `json:"languages" validate:"max=20,dive,required,max=60"`
}

// fieldProfile prefixes validation details of a profile replacement.
const fieldProfile = "profile"
