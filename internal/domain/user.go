package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account
type User struct {
	ID                 uuid.UUID `json:"id"`
	UserName           string    `json:"userName"`
	NormalizedUserName string    `json:"-"`
	Email              string    `json:"email"`
	NormalizedEmail    string    `json:"-"`
	PasswordHash       string    `json:"-"`
	SecurityStamp      string    `json:"-"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	UserName             string `json:"userName" validate:"required,max=256"`
	Password             string `json:"password" validate:"required,bcryptmax,complexity"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
	Email                string `json:"email" validate:"required,email,max=256"`
	FirstName            string `json:"firstName" validate:"required,max=200"`
	LastName             string `json:"lastName" validate:"required,max=250"`
}

// TokenResponse is returned by every endpoint that issues a bearer token
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Principal is the caller identity established from a validated bearer token
type Principal struct {
	Subject    string
	UniqueName string
	TokenID    string
}

// SignInStatus is the outcome of a password sign-in attempt
type SignInStatus int

const (
	SignInFailed SignInStatus = iota
	SignInSucceeded
	// SignInLockedOut is reserved; lockout is never enforced.
	SignInLockedOut
)

func (s SignInStatus) String() string {
	switch s {
	case SignInSucceeded:
		return "succeeded"
	case SignInLockedOut:
		return "locked_out"
	default:
		return "failed"
	}
}

// SignInResult carries the outcome of a password sign-in
type SignInResult struct {
	Status    SignInStatus
	User      *User
	SessionID string
}

// Succeeded reports whether the sign-in established a session
func (r SignInResult) Succeeded() bool {
	return r.Status == SignInSucceeded
}

// UserStore persists users and owns password hashing and sign-in sessions.
// Lookups return nil, nil when the user does not exist.
type UserStore interface {
	FindByUsername(ctx context.Context, userName string) (*User, error)
	Create(ctx context.Context, user *User, password string) error
	PasswordSignIn(ctx context.Context, userName, password string, persistent, lockoutOnFailure bool) (SignInResult, error)
	SignIn(ctx context.Context, user *User, persistent bool) (string, error)
	SignOut(ctx context.Context, sessionID string) error
}
