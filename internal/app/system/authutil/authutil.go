// Package authutil provides password hashing, verification, and strength
// validation for local credentials.
package authutil

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds. The upper bound exists because bcrypt ignores
// input beyond 72 bytes; 128 leaves headroom for validation messaging
// without pretending longer passwords add strength.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// DefaultBcryptCost is used unless SetCost is called at startup.
const DefaultBcryptCost = 12

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 128 characters")
	ErrPasswordCommon   = errors.New("password is too common")
)

var (
	costMu sync.RWMutex
	cost   = DefaultBcryptCost
)

// commonPasswords are rejected outright, case-insensitively. A short list is
// enough to stop the worst offenders; real breach-list checking is an
// external concern.
var commonPasswords = map[string]struct{}{
	"123456":    {},
	"12345678":  {},
	"123456789": {},
	"password":  {},
	"password1": {},
	"qwerty":    {},
	"qwerty123": {},
	"abc123":    {},
	"iloveyou":  {},
	"letmein":   {},
	"football":  {},
	"welcome":   {},
	"admin123":  {},
	"sunshine":  {},
}

// SetCost overrides the bcrypt work factor. Call once during startup,
// before any hashing happens. Values outside bcrypt's supported range are
// ignored.
func SetCost(c int) {
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		return
	}
	costMu.Lock()
	cost = c
	costMu.Unlock()
}

// HashPassword hashes a plaintext password with bcrypt. The salt is random
// per call, so hashing the same password twice yields different digests.
func HashPassword(password string) (string, error) {
	costMu.RLock()
	c := cost
	costMu.RUnlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt digest.
// Comparison is constant-time inside bcrypt. A malformed digest fails
// closed: the function returns false rather than surfacing an error.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the password rules for new local credentials.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, bad := commonPasswords[strings.ToLower(password)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules returns a human-readable description of the password rules,
// suitable for API error detail and client display.
func PasswordRules() string {
	return "Password must be 8-128 characters and not a commonly used password."
}
