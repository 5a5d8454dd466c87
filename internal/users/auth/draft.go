// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"strings"
	"time"
)

// Draft is a tutor registration in progress. It is keyed by the digest of a
// random draft token and holds a password digest, never the plaintext.
type Draft struct {
	CredentialKey string       `json:"credentialKey"`
	PasswordHash  string       `json:"passwordHash"`
	Profile       TutorProfile `json:"profile"`
	CreatedAt     time.Time    `json:"createdAt"`
	ExpiresAt     time.Time    `json:"expiresAt"`
}

// TutorPersonal is the personal-details step of a tutor draft.
type TutorPersonal struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone,omitempty" validate:"max=32"`
	Gender   string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Country  string `json:"country,omitempty" validate:"max=120"`
	State    string `json:"state,omitempty" validate:"max=120"`
	City     string `json:"city,omitempty" validate:"max=120"`
	District string `json:"district,omitempty" validate:"max=120"`
	Address  string `json:"address,omitempty" validate:"max=255"`
}

// Normalize trims every field of the personal step.
func (p *TutorPersonal) Normalize() {
	for _, field := range []*string{
		&p.Name, &p.Email, &p.Phone, &p.Gender, &p.Country,
		&p.State, &p.City, &p.District, &p.Address,
	} {
		*field = strings.TrimSpace(*field)
	}
}

// ApplyTo copies the personal step onto profile.
func (p TutorPersonal) ApplyTo(profile *TutorProfile) {
	profile.Name = p.Name
	profile.Email = p.Email
	profile.Phone = p.Phone
	profile.Gender = p.Gender
	profile.Country = p.Country
	profile.State = p.State
	profile.City = p.City
	profile.District = p.District
	profile.Address = p.Address
}

// TutorTeaching is the teaching-details step of a tutor draft.
type TutorTeaching struct {
	Languages  []string  `json:"languages,omitempty" validate:"max=20,dive,required,max=60"`
	Experience string    `json:"experience,omitempty" validate:"max=500"`
	Courses    []string  `json:"courses,omitempty" validate:"max=50,dive,required,max=120"`
	Subjects   []Subject `json:"subjects,omitempty" validate:"max=50,dive"`
	Bio        string    `json:"bio,omitempty" validate:"max=2000"`
}

// Normalize trims the free text and every list entry of the teaching step.
func (t *TutorTeaching) Normalize() {
	t.Languages = TrimAll(t.Languages)
	t.Courses = TrimAll(t.Courses)
	t.Subjects = TrimSubjects(t.Subjects)
	t.Experience = strings.TrimSpace(t.Experience)
	t.Bio = strings.TrimSpace(t.Bio)
}

func (t TutorTeaching) applyTo(profile *TutorProfile) {
	profile.Languages = t.Languages
	profile.Experience = t.Experience
	profile.Courses = t.Courses
	profile.Subjects = t.Subjects
	profile.Bio = t.Bio
}

// DraftTicket is returned by every draft step.
type DraftTicket struct {
	DraftToken string    `json:"draftToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// TrimAll trims every entry of values. A nil slice stays nil.
func TrimAll(values []string) []string {
	if values == nil {
		return nil
	}
	trimmed := make([]string, len(values))
	for i, value := range values {
		trimmed[i] = strings.TrimSpace(value)
	}
	return trimmed
}

// TrimSubjects trims the name and level of every subject. A nil slice stays nil.
func TrimSubjects(subjects []Subject) []Subject {
	if subjects == nil {
		return nil
	}
	trimmed := make([]Subject, len(subjects))
	for i, subject := range subjects {
		trimmed[i] = Subject{Name: strings.TrimSpace(subject.Name), Level: strings.TrimSpace(subject.Level)}
	}
	return trimmed
}
