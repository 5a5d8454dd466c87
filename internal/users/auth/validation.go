// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"strings"

	"github.com/taibuivan/tutora/internal/platform/validate"
)

// validateCredentials checks an already normalized username and a password.
func validateCredentials(validator *validate.Validator, key, passwordField, password string) {
	validator.Required(FieldUsername, key)
	if key != "" {
		validator.MinLen(FieldUsername, key, UsernameMinLength).
			MaxLen(FieldUsername, key, UsernameMaxLength).
			NoWhitespace(FieldUsername, key)
	}
	validatePassword(validator, passwordField, password)
}

func validatePassword(validator *validate.Validator, field, password string) {
	validator.Required(field, password)
	if strings.TrimSpace(password) != "" {
		validator.MinLen(field, password, PasswordMinLength).
			MaxBytes(field, password, PasswordMaxBytes)
	}
}

// validateProfile requires the profile side matching kind and runs its tags.
func validateProfile(validator *validate.Validator, kind Kind, profile Profile) {
	switch kind {
	case KindStudent:
		validator.Custom(FieldProfile, profile.Student == nil, "This field is required")
		validator.Custom(FieldProfile, profile.Tutor != nil, "Tutor details are not accepted for a student")
		if profile.Student != nil {
			validator.Struct(FieldProfile, profile.Student)
		}
	case KindTutor:
		validator.Custom(FieldProfile, profile.Tutor == nil, "This field is required")
		validator.Custom(FieldProfile, profile.Student != nil, "Student details are not accepted for a tutor")
		if profile.Tutor != nil {
			validator.Struct(FieldProfile, profile.Tutor)
		}
	}
}

// trimProfile strips surrounding whitespace from the identity fields, so a
// blank name fails the required rule.
func trimProfile(profile *Profile) {
	if student := profile.Student; student != nil {
		student.Name = strings.TrimSpace(student.Name)
		student.Email = strings.TrimSpace(student.Email)
	}
	if tutor := profile.Tutor; tutor != nil {
		tutor.Name = strings.TrimSpace(tutor.Name)
		tutor.Email = strings.TrimSpace(tutor.Email)
		tutor.Phone = strings.TrimSpace(tutor.Phone)
	}
}
