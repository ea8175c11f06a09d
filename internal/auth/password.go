// Package auth holds the credential primitives: password hashing and policy,
// reset secrets and signed access tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var ErrWeakPassword = errors.New("password does not meet the complexity policy")

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash.
	Verify(hash, password string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type PasswordPolicy struct {
	MinLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    8,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate returns an error wrapping ErrWeakPassword that lists every unmet
// rule, or nil.
func (p PasswordPolicy) Validate(password string) error {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	var unmet []string
	if utf8.RuneCountInString(password) < p.MinLength {
		unmet = append(unmet, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if len(password) > MaxPasswordBytes {
		unmet = append(unmet, fmt.Sprintf("at most %d bytes", MaxPasswordBytes))
	}
	if p.RequireUpper && !upper {
		unmet = append(unmet, "an uppercase letter")
	}
	if p.RequireLower && !lower {
		unmet = append(unmet, "a lowercase letter")
	}
	if p.RequireDigit && !digit {
		unmet = append(unmet, "a digit")
	}

	if len(unmet) == 0 {
		return nil
	}
	return fmt.Errorf("%w: requires %s", ErrWeakPassword, strings.Join(unmet, ", "))
}
