// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the authentication and session lifecycle for the two
principal kinds of the marketplace: students and tutors.

# Architecture

  - Entities: Principal with a kind-specific Profile.
  - Service: Register, Login, Refresh, Logout, ChangePassword and the
    multi-step tutor registration drafts.
  - Storage: CredentialStore (Postgres or in-memory) and DraftStore (Redis).
  - Security: bcrypt digests and HS256 tokens from [sec].

A principal holds at most one refresh token. Login overwrites it, logout
clears it, and refresh only succeeds with the stored value.
*/
package auth

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/tutora/internal/platform/sec"
)

// # Principal Kinds

// Kind discriminates the two principal populations. Credential keys are
// unique within a kind, not across kinds.
type Kind string

const (
	KindStudent Kind = "student"
	KindTutor   Kind = "tutor"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindStudent || k == KindTutor
}

// Role returns the fixed role granted to principals of this kind.
func (k Kind) Role() sec.Role {
	if k == KindTutor {
		return sec.RoleTeacher
	}
	return sec.RoleStudent
}

// Label is the human-facing name used in error messages.
func (k Kind) Label() string {
	if k == KindTutor {
		return "Tutor"
	}
	return "Student"
}

// KindForRole maps an access token role back to its principal kind.
func KindForRole(role sec.Role) (Kind, error) {
	switch role {
	case sec.RoleStudent:
		return KindStudent, nil
	case sec.RoleTeacher:
		return KindTutor, nil
	default:
		return "", fmt.Errorf("auth: no principal kind for role %q", role)
	}
}

// # Domain Entities

// Principal is an authenticable account.
//
// PasswordHash and RefreshToken never leave the process in JSON.
type Principal struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	CredentialKey string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          sec.Role  `json:"role"`
	RefreshToken  *string   `json:"-"`
	Profile       Profile   `json:"profile"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	clone := *p
	if p.RefreshToken != nil {
		token := *p.RefreshToken
		clone.RefreshToken = &token
	}
	clone.Profile = p.Profile.Clone()
	return &clone
}

// Profile holds the business attributes co-located with the credential.
// Exactly one side is set, matching the principal kind.
type Profile struct {
	Student *StudentProfile `json:"student,omitempty"`
	Tutor   *TutorProfile   `json:"tutor,omitempty"`
}

// Clone deep-copies the populated side of the profile.
func (p Profile) Clone() Profile {
	var clone Profile
	if p.Student != nil {
		student := *p.Student
		student.PresentAddress = p.Student.PresentAddress.clone()
		student.PermanentAddress = p.Student.PermanentAddress.clone()
		clone.Student = &student
	}
	if p.Tutor != nil {
		tutor := *p.Tutor
		tutor.Languages = slices.Clone(p.Tutor.Languages)
		tutor.Courses = slices.Clone(p.Tutor.Courses)
		tutor.Subjects = slices.Clone(p.Tutor.Subjects)
		clone.Tutor = &tutor
	}
	return clone
}

// StudentProfile is the profile of a student principal.
type StudentProfile struct {
	Name             string   `json:"name" validate:"required,max=120"`
	Email            string   `json:"email,omitempty" validate:"omitempty,email,max=254"`
	DateOfBirth      string   `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	BirthPlace       string   `json:"birthPlace,omitempty" validate:"max=120"`
	CurrentLocation  string   `json:"currentLocation,omitempty" validate:"max=120"`
	MotherLanguage   string   `json:"motherLanguage,omitempty" validate:"max=60"`
	LocalLanguage    string   `json:"localLanguage,omitempty" validate:"max=60"`
	PresentAddress   *Address `json:"presentAddress,omitempty"`
	PermanentAddress *Address `json:"permanentAddress,omitempty"`
	SameAsPresent    bool     `json:"sameAsPresent,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line       string `json:"line" validate:"max=255"`
	City       string `json:"city,omitempty" validate:"max=120"`
	State      string `json:"state,omitempty" validate:"max=120"`
	Country    string `json:"country,omitempty" validate:"max=120"`
	PostalCode string `json:"postalCode,omitempty" validate:"max=20"`
}

func (a *Address) clone() *Address {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// TutorProfile is the profile of a tutor principal.
type TutorProfile struct {
	Name       string    `json:"name" validate:"required,max=120"`
	Email      string    `json:"email" validate:"required,email,max=254"`
	Phone      string    `json:"phone,omitempty" validate:"max=32"`
	Gender     string    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Bio        string    `json:"bio,omitempty" validate:"max=2000"`
	Country    string    `json:"country,omitempty" validate:"max=120"`
	State      string    `json:"state,omitempty" validate:"max=120"`
	City       string    `json:"city,omitempty" validate:"max=120"`
	District   string    `json:"district,omitempty" validate:"max=120"`
	Address    string    `json:"address,omitempty" validate:"max=255"`
	Languages  []string  `json:"languages,omitempty" validate:"max=20,dive,required,max=60"`
	Experience string    `json:"experience,omitempty" validate:"max=500"`
	Courses    []string  `json:"courses,omitempty" validate:"max=50,dive,required,max=120"`
	Subjects   []Subject `json:"subjects,omitempty" validate:"max=50,dive"`
}

// Subject is a teachable subject with an optional level.
type Subject struct {
	Name  string `json:"name" validate:"required,max=120"`
	Level string `json:"level,omitempty" validate:"max=60"`
}

// # Partial Updates

// Update lists the fields UpdateFields may change. Nil fields are left as is.
// Role and credential key have no field: they never change.
type Update struct {
	PasswordHash      *string
	RefreshToken      *string
	ClearRefreshToken bool
	Profile           *Profile
}

// Apply writes the update onto principal.
func (u Update) Apply(principal *Principal, now time.Time) {
	if u.PasswordHash != nil {
		principal.PasswordHash = *u.PasswordHash
	}
	if u.ClearRefreshToken {
		principal.RefreshToken = nil
	}
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		principal.RefreshToken = &token
	}
	if u.Profile != nil {
		principal.Profile = u.Profile.Clone()
	}
	principal.UpdatedAt = now
}

// NormalizeKey trims surrounding whitespace and applies Unicode NFC so that
// visually identical usernames compare equal. Matching stays case-sensitive.
func NormalizeKey(key string) string {
	return norm.NFC.String(strings.TrimSpace(key))
}
