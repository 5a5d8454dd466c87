// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Principal Roles

// Role is the authorization tag stamped on a principal at creation.
// It is never mutated afterwards.
type Role string

const (
	// Learners who book classes
	RoleStudent Role = "student"

	// Tutors who publish courses, videos and subjects
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// # Role Gate

// In reports whether r is a member of the allowed set.
// An empty set admits nobody.
func (r Role) In(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}
