package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAuthenticationFailed is returned for every rejected login so callers
	// cannot tell an unknown user from a wrong password.
	ErrAuthenticationFailed = errors.New("invalid username or password")
	ErrNotFound             = errors.New("user not found")
	ErrUnauthenticated      = errors.New("unauthenticated")
)

// ValidationError reports request fields that failed validation, keyed by
// their JSON name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IdentityError is a single store-reported registration failure
type IdentityError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

const (
	CodeInvalidUserName   = "InvalidUserName"
	CodeDuplicateUserName = "DuplicateUserName"
	CodeDuplicateEmail    = "DuplicateEmail"
)

// RegistrationError lists the reasons the store refused to create a user
type RegistrationError struct {
	Errors []IdentityError
}

func (e *RegistrationError) Error() string {
	descs := make([]string, 0, len(e.Errors))
	for _, ie := range e.Errors {
		descs = append(descs, ie.Description)
	}
	return "registration rejected: " + strings.Join(descs, " ")
}

// ConfigurationError is returned at startup when required settings are
// missing or invalid
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}
