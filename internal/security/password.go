package security

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength       = 8
	MinPasswordClassesCount = 3
	// MaxPasswordBytes is bcrypt's input limit
	MaxPasswordBytes = 72
)

// PasswordTooLongMessage is reported for passwords bcrypt cannot hash
const PasswordTooLongMessage = "must be at most 72 bytes"

// PasswordComplexityMessage describes the complexity policy to end users
const PasswordComplexityMessage = "Passwords must be at least 8 characters and contain at least 3 of 4 of the following: " +
	"upper case (A-Z), lower case (a-z), number (0-9) and special character (e.g. !@#$%^&*)"

// ErrPasswordMismatch is returned when a password does not match its hash
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordClasses counts how many of the four character classes (upper case,
// lower case, digit, non-alphanumeric) appear in password.
func PasswordClasses(password string) int {
	var hasUpper, hasLower, hasDigit, hasSymbol bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}

	count := 0
	for _, present := range []bool{hasUpper, hasLower, hasDigit, hasSymbol} {
		if present {
			count++
		}
	}
	return count
}

// MeetsPasswordComplexity reports whether password is long enough and mixes
// enough character classes
func MeetsPasswordComplexity(password string) bool {
	if len([]rune(password)) < MinPasswordLength {
		return false
	}
	return PasswordClasses(password) >= MinPasswordClassesCount
}

// FitsBcrypt reports whether password is within bcrypt's byte limit
func FitsBcrypt(password string) bool {
	return len(password) <= MaxPasswordBytes
}

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher; a cost outside bcrypt's range falls back
// to bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash hashes a password
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare checks a password against a hash
func (h *BcryptHasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}
