package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/identity-api/internal/domain"
)

// CredentialVerifier checks a username/password pair against the user store
type CredentialVerifier struct {
	store domain.UserStore
}

// NewCredentialVerifier creates a new credential verifier
func NewCredentialVerifier(store domain.UserStore) *CredentialVerifier {
	return &CredentialVerifier{store: store}
}

// Verify signs the user in when the password matches. Sessions are never
// persistent and failures never count towards lockout.
func (v *CredentialVerifier) Verify(ctx context.Context, userName, password string) (domain.SignInResult, error) {
	result, err := v.store.PasswordSignIn(ctx, userName, password, false, false)
	if err != nil {
		return domain.SignInResult{Status: domain.SignInFailed}, fmt.Errorf("failed to verify credentials: %w", err)
	}
	if result.Succeeded() && result.User == nil {
		return domain.SignInResult{Status: domain.SignInFailed}, errors.New("store reported sign-in without a user")
	}
	return result, nil
}
