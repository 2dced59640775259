package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserRepository persists user records. Lookups return nil, nil when no
// record matches; Create returns *DuplicateError on a unique violation.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByNormalizedUserName(ctx context.Context, normalized string) (*domain.User, error)
	GetByNormalizedEmail(ctx context.Context, normalized string) (*domain.User, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// SessionStore keeps sign-in sessions. Get reports ok=false for a missing
// or expired session.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (userID uuid.UUID, ok bool, err error)
	Delete(ctx context.Context, sessionID string) error
}

// DuplicateError is returned by repositories when a unique constraint on
// the user name or email rejects an insert
type DuplicateError struct {
	Field string
	Err   error
}

const (
	FieldUserName = "username"
	FieldEmail    = "email"
)

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %v", e.Field, e.Err)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// SessionConfig controls sign-in session lifetimes
type SessionConfig struct {
	TTL           time.Duration
	PersistentTTL time.Duration
}

// Store implements domain.UserStore
type Store struct {
	users    UserRepository
	hasher   PasswordHasher
	sessions SessionStore
	cfg      SessionConfig
	now      func() time.Time
}

// NewStore creates a new identity store
func NewStore(users UserRepository, hasher PasswordHasher, sessions SessionStore, cfg SessionConfig) *Store {
	return &Store{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// FindByUsername looks a user up by normalised user name
func (s *Store) FindByUsername(ctx context.Context, userName string) (*domain.User, error) {
	normalized := security.NormalizeName(userName)
	if normalized == "" {
		return nil, nil
	}
	return s.users.GetByNormalizedUserName(ctx, normalized)
}

// Create validates, hashes and persists a new user. Rule violations are
// reported together as *domain.RegistrationError.
func (s *Store) Create(ctx context.Context, user *domain.User, password string) error {
	user.NormalizedUserName = security.NormalizeName(user.UserName)
	user.NormalizedEmail = security.NormalizeName(user.Email)

	if err := s.validateUser(ctx, user); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	user.ID = uuid.New()
	user.PasswordHash = hash
	user.SecurityStamp = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.users.Create(ctx, user); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			return &domain.RegistrationError{Errors: []domain.IdentityError{duplicateError(dup.Field, user)}}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// PasswordSignIn verifies the password and opens a session on success.
// Lockout is not implemented, so lockoutOnFailure has no effect.
func (s *Store) PasswordSignIn(ctx context.Context, userName, password string, persistent, lockoutOnFailure bool) (domain.SignInResult, error) {
	failed := domain.SignInResult{Status: domain.SignInFailed}

	user, err := s.FindByUsername(ctx, userName)
	if err != nil {
		return failed, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return failed, nil
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return failed, nil
		}
		return failed, err
	}

	sessionID, err := s.SignIn(ctx, user, persistent)
	if err != nil {
		return failed, err
	}

	return domain.SignInResult{Status: domain.SignInSucceeded, User: user, SessionID: sessionID}, nil
}

// SignIn opens a sign-in session for the user
func (s *Store) SignIn(ctx context.Context, user *domain.User, persistent bool) (string, error) {
	ttl := s.cfg.TTL
	if persistent {
		ttl = s.cfg.PersistentTTL
	}

	sessionID, err := s.sessions.Create(ctx, user.ID, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	log.Debug().Str("user", user.UserName).Bool("persistent", persistent).Msg("Session created")
	return sessionID, nil
}

// SignOut removes a sign-in session. Missing sessions are not an error.
func (s *Store) SignOut(ctx context.Context, sessionID string) error {
	userID, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		log.Debug().Msg("Sign out of unknown or expired session")
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	log.Info().Str("user_id", userID.String()).Msg("Session ended")
	return nil
}
