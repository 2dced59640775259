package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// AuthResult is the outcome of an operation that issues a token
type AuthResult struct {
	Token     string
	ExpiresIn int64
	SessionID string
}

// AuthService handles authentication operations
type AuthService struct {
	store     domain.UserStore
	verifier  *CredentialVerifier
	registrar *RegistrationValidator
	issuer    *security.TokenIssuer
	validate  *validator.Validate
}

// NewAuthService creates a new auth service
func NewAuthService(
	store domain.UserStore,
	verifier *CredentialVerifier,
	registrar *RegistrationValidator,
	issuer *security.TokenIssuer,
) *AuthService {
	return &AuthService{
		store:     store,
		verifier:  verifier,
		registrar: registrar,
		issuer:    issuer,
		validate:  NewValidate(),
	}
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(ctx context.Context, input domain.LoginRequest) (*AuthResult, error) {
	if err := validateStruct(s.validate, input); err != nil {
		log.Info().Msg("Invalid login request")
		return nil, err
	}

	result, err := s.verifier.Verify(ctx, input.UserName, input.Password)
	if err != nil {
		return nil, err
	}
	if !result.Succeeded() {
		log.Info().
			Str("user", input.UserName).
			Stringer("status", result.Status).
			Msg("Could not sign in user")
		return nil, domain.ErrAuthenticationFailed
	}

	log.Info().Str("user", result.User.UserName).Msg("Successful sign in")

	return s.issue(result.User, result.SessionID)
}

// Register creates a new user account, signs it in and returns a token
func (s *AuthService) Register(ctx context.Context, input domain.RegisterRequest) (*AuthResult, error) {
	user, err := s.registrar.ValidateAndMap(input)
	if err != nil {
		log.Info().Msg("Invalid registration request")
		return nil, err
	}

	if err := s.store.Create(ctx, user, input.Password); err != nil {
		var regErr *domain.RegistrationError
		if errors.As(err, &regErr) {
			log.Info().Str("user", input.UserName).Msg("Unable to register user")
			return nil, regErr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	sessionID, err := s.store.SignIn(ctx, user, false)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in user: %w", err)
	}

	log.Info().Str("user", user.UserName).Msg("Registration successful")

	return s.issue(user, sessionID)
}

// SignOut ends a sign-in session. Unknown or empty sessions are ignored.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.SignOut(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// RefreshToken issues a new token for an already authenticated caller
func (s *AuthService) RefreshToken(ctx context.Context, principal domain.Principal) (*AuthResult, error) {
	if principal.UniqueName == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.store.FindByUsername(ctx, principal.UniqueName)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	log.Info().Str("user", user.UserName).Msg("Token refresh")

	return s.issue(user, "")
}

func (s *AuthService) issue(user *domain.User, sessionID string) (*AuthResult, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{
		Token:     token,
		ExpiresIn: int64(s.issuer.Lifetime().Seconds()),
		SessionID: sessionID,
	}, nil
}
