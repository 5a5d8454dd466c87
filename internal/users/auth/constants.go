// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Credential Policy

const (
	// UsernameMinLength and UsernameMaxLength bound the credential key in characters.
	UsernameMinLength = 3
	UsernameMaxLength = 64

	// PasswordMinLength is the shortest accepted password in characters.
	PasswordMinLength = 6

	// PasswordMaxBytes is bcrypt's input limit. Longer inputs would be truncated silently.
	PasswordMaxBytes = 72

	// DraftTokenLength is the byte length of a registration draft token before encoding.
	DraftTokenLength = 32
)

// # Field Identifiers

const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldProfile         = "profile"
	FieldRefreshToken    = "refreshToken"
	FieldPrincipalID     = "principalId"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldDraftToken      = "draftToken"
	FieldSubjects        = "subjects"
)

// # Metric Operations

const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpRefresh        = "refresh"
	OpLogout         = "logout"
	OpChangePassword = "change_password"
	OpDraftStart     = "draft_start"
	OpDraftUpdate    = "draft_update"
	OpDraftComplete  = "draft_complete"
)
