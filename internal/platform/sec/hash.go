// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashing marks failures of the hashing primitive itself (entropy failure,
// malformed digest). They are never a normal control-flow path.
var ErrHashing = errors.New("sec: hashing failure")

// BcryptHasher hashes and verifies passwords with a fixed bcrypt cost.
//
// The cost is an operator setting loaded once at startup; it is never taken
// from request input.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using the given cost.
// The cost must lie within bcrypt's supported range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("sec: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash produces a salted one-way digest. Every call draws a fresh salt, so two
// digests of the same plaintext differ.
func (hasher *BcryptHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("%w: failed to hash password: %w", ErrHashing, err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with a stored digest.
//
// A mismatch is reported as (false, nil). Only a digest that cannot be parsed
// yields an error wrapping [ErrHashing].
func (hasher *BcryptHasher) Verify(plainTextPassword, existingHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: malformed password digest: %w", ErrHashing, err)
	}
}
