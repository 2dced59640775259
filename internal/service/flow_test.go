package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/identity-api/internal/config"
	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/Rrens/identity-api/internal/repository"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/Rrens/identity-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memorySessions keeps sessions in a map
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]uuid.UUID
}

func (m *memorySessions) Create(_ context.Context, userID uuid.UUID, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.sessions[id] = userID
	return id, nil
}

func (m *memorySessions) Get(_ context.Context, sessionID string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.sessions[sessionID]
	return userID, ok, nil
}

func (m *memorySessions) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *memorySessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type flow struct {
	auth     *service.AuthService
	issuer   *security.TokenIssuer
	store    *identity.Store
	sessions *memorySessions
}

func newFlow(t *testing.T) flow {
	t.Helper()
	ctx := context.Background()

	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "identity.db"),
	}
	require.NoError(t, repository.Migrate(cfg))
	db, err := repository.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer, err := security.NewTokenIssuer(security.TokenConfig{
		Key:      "flow-test-signing-key-0123456789",
		Lifetime: time.Hour,
		Audience: "identity-clients",
		Issuer:   "identity-api",
	})
	require.NoError(t, err)

	sessions := &memorySessions{sessions: map[string]uuid.UUID{}}
	store := identity.NewStore(db.Users, security.NewBcryptHasher(bcrypt.MinCost), sessions, identity.SessionConfig{
		TTL:           20 * time.Minute,
		PersistentTTL: 24 * time.Hour,
	})

	auth := service.NewAuthService(
		store,
		service.NewCredentialVerifier(store),
		service.NewRegistrationValidator(),
		issuer,
	)
	return flow{auth: auth, issuer: issuer, store: store, sessions: sessions}
}

func aliceRegistration() domain.RegisterRequest {
	return domain.RegisterRequest{
		UserName:             "alice",
		Password:             "Abcdef1!",
		PasswordConfirmation: "Abcdef1!",
		Email:                "alice@x.com",
		FirstName:            "Alice",
		LastName:             "Smith",
	}
}

func TestAccountFlow(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t)

	// Register returns a token whose subject is the stored user
	registered, err := f.auth.Register(ctx, aliceRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, registered.SessionID)

	claims, err := f.issuer.Validate(registered.Token)
	require.NoError(t, err)
	stored, err := f.store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, stored.ID.String(), claims.Subject)
	assert.Equal(t, "alice", claims.UniqueName)
	assert.Equal(t, "Alice", stored.FirstName)
	assert.Equal(t, "Smith", stored.LastName)

	// Same user name in another case is a duplicate
	again := aliceRegistration()
	again.UserName = "ALICE"
	again.Email = "other@x.com"
	_, err = f.auth.Register(ctx, again)
	var regErr *domain.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, domain.CodeDuplicateUserName, regErr.Errors[0].Code)

	// Wrong password and unknown user fail identically
	_, wrongPassword := f.auth.Login(ctx, domain.LoginRequest{UserName: "alice", Password: "wrong"})
	_, unknownUser := f.auth.Login(ctx, domain.LoginRequest{UserName: "mallory", Password: "wrong"})
	assert.ErrorIs(t, wrongPassword, domain.ErrAuthenticationFailed)
	assert.Equal(t, wrongPassword, unknownUser)

	// Login then refresh keeps the subject and changes the token id
	loggedIn, err := f.auth.Login(ctx, domain.LoginRequest{UserName: "alice", Password: "Abcdef1!"})
	require.NoError(t, err)
	loginClaims, err := f.issuer.Validate(loggedIn.Token)
	require.NoError(t, err)

	refreshed, err := f.auth.RefreshToken(ctx, domain.Principal{
		Subject:    loginClaims.Subject,
		UniqueName: loginClaims.UniqueName,
		TokenID:    loginClaims.ID,
	})
	require.NoError(t, err)
	refreshedClaims, err := f.issuer.Validate(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, loginClaims.Subject, refreshedClaims.Subject)
	assert.NotEqual(t, loginClaims.ID, refreshedClaims.ID)
	assert.NotEqual(t, claims.ID, refreshedClaims.ID)

	// Sign out ends the login session only
	assert.Equal(t, 2, f.sessions.count())
	require.NoError(t, f.auth.SignOut(ctx, loggedIn.SessionID))
	assert.Equal(t, 1, f.sessions.count())
}

func TestAccountFlow_WeakPassword(t *testing.T) {
	f := newFlow(t)

	req := aliceRegistration()
	req.Password = "abcdefgh"
	req.PasswordConfirmation = "abcdefgh"

	_, err := f.auth.Register(context.Background(), req)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, security.PasswordComplexityMessage, validationErr.Fields["password"])

	user, err := f.store.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAccountFlow_MultibytePasswordOverBcryptLimit(t *testing.T) {
	f := newFlow(t)

	req := aliceRegistration()
	req.Password = "Aa1!" + strings.Repeat("é", 40)
	req.PasswordConfirmation = req.Password

	_, err := f.auth.Register(context.Background(), req)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, security.PasswordTooLongMessage, validationErr.Fields["password"])

	user, err := f.store.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, user)
}
