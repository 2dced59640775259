package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository mocks UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByNormalizedUserName(ctx context.Context, normalized string) (*domain.User, error) {
	args := m.Called(ctx, normalized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByNormalizedEmail(ctx context.Context, normalized string) (*domain.User, error) {
	args := m.Called(ctx, normalized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockSessionStore mocks SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	args := m.Called(ctx, userID, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) Get(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

var sessionCfg = SessionConfig{TTL: 20 * time.Minute, PersistentTTL: 14 * 24 * time.Hour}

func newTestStore() (*Store, *MockUserRepository, *MockSessionStore) {
	users := new(MockUserRepository)
	sessions := new(MockSessionStore)
	return NewStore(users, security.NewBcryptHasher(bcrypt.MinCost), sessions, sessionCfg), users, sessions
}

func newUser() *domain.User {
	return &domain.User{UserName: "Alice", Email: "Alice@X.com", FirstName: "Alice", LastName: "Smith"}
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success fills stored fields", func(t *testing.T) {
		store, users, _ := newTestStore()
		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return fixed }

		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(nil, nil)
		users.On("GetByNormalizedEmail", ctx, "ALICE@X.COM").Return(nil, nil)
		users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user := newUser()
		require.NoError(t, store.Create(ctx, user, "Abcdef1!"))

		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "ALICE", user.NormalizedUserName)
		assert.Equal(t, "ALICE@X.COM", user.NormalizedEmail)
		assert.NotEmpty(t, user.SecurityStamp)
		assert.Equal(t, fixed, user.CreatedAt)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Abcdef1!")))
		users.AssertExpectations(t)
	})

	t.Run("duplicates are collected", func(t *testing.T) {
		store, users, _ := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(&domain.User{UserName: "alice"}, nil)
		users.On("GetByNormalizedEmail", ctx, "ALICE@X.COM").Return(&domain.User{Email: "alice@x.com"}, nil)

		err := store.Create(ctx, newUser(), "Abcdef1!")

		var regErr *domain.RegistrationError
		require.ErrorAs(t, err, &regErr)
		require.Len(t, regErr.Errors, 2)
		assert.Equal(t, domain.CodeDuplicateUserName, regErr.Errors[0].Code)
		assert.Equal(t, "User name 'Alice' is already taken.", regErr.Errors[0].Description)
		assert.Equal(t, domain.CodeDuplicateEmail, regErr.Errors[1].Code)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid user name", func(t *testing.T) {
		store, users, _ := newTestStore()
		users.On("GetByNormalizedEmail", ctx, "ALICE@X.COM").Return(nil, nil)

		user := newUser()
		user.UserName = "alice smith"
		err := store.Create(ctx, user, "Abcdef1!")

		var regErr *domain.RegistrationError
		require.ErrorAs(t, err, &regErr)
		require.Len(t, regErr.Errors, 1)
		assert.Equal(t, domain.CodeInvalidUserName, regErr.Errors[0].Code)
	})

	t.Run("concurrent duplicate caught by constraint", func(t *testing.T) {
		store, users, _ := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(nil, nil)
		users.On("GetByNormalizedEmail", ctx, "ALICE@X.COM").Return(nil, nil)
		users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Return(&DuplicateError{Field: FieldEmail, Err: errors.New("unique violation")})

		err := store.Create(ctx, newUser(), "Abcdef1!")

		var regErr *domain.RegistrationError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, domain.CodeDuplicateEmail, regErr.Errors[0].Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		store, users, _ := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(nil, errors.New("db down"))

		err := store.Create(ctx, newUser(), "Abcdef1!")

		var regErr *domain.RegistrationError
		assert.False(t, errors.As(err, &regErr))
		assert.ErrorContains(t, err, "db down")
	})
}

func TestStore_PasswordSignIn(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("Abcdef1!"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &domain.User{ID: uuid.New(), UserName: "alice", PasswordHash: string(hash)}

	t.Run("success opens session", func(t *testing.T) {
		store, users, sessions := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(stored, nil)
		sessions.On("Create", ctx, stored.ID, sessionCfg.TTL).Return("sess-1", nil)

		result, err := store.PasswordSignIn(ctx, "Alice", "Abcdef1!", false, false)
		require.NoError(t, err)
		assert.Equal(t, domain.SignInSucceeded, result.Status)
		assert.Equal(t, "sess-1", result.SessionID)
		assert.Same(t, stored, result.User)
	})

	t.Run("persistent session uses long ttl", func(t *testing.T) {
		store, users, sessions := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(stored, nil)
		sessions.On("Create", ctx, stored.ID, sessionCfg.PersistentTTL).Return("sess-2", nil)

		result, err := store.PasswordSignIn(ctx, "alice", "Abcdef1!", true, false)
		require.NoError(t, err)
		assert.Equal(t, "sess-2", result.SessionID)
		sessions.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		store, users, sessions := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "ALICE").Return(stored, nil)

		result, err := store.PasswordSignIn(ctx, "alice", "wrong", false, false)
		require.NoError(t, err)
		assert.Equal(t, domain.SignInFailed, result.Status)
		sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		store, users, _ := newTestStore()
		users.On("GetByNormalizedUserName", ctx, "NOBODY").Return(nil, nil)

		result, err := store.PasswordSignIn(ctx, "nobody", "wrong", false, false)
		require.NoError(t, err)
		assert.Equal(t, domain.SignInFailed, result.Status)
	})
}

func TestStore_SignOut(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("ends known session", func(t *testing.T) {
		store, _, sessions := newTestStore()
		sessions.On("Get", ctx, "sess-1").Return(userID, true, nil)
		sessions.On("Delete", ctx, "sess-1").Return(nil)

		assert.NoError(t, store.SignOut(ctx, "sess-1"))
		sessions.AssertExpectations(t)
	})

	t.Run("unknown session is a no-op", func(t *testing.T) {
		store, _, sessions := newTestStore()
		sessions.On("Get", ctx, "gone").Return(uuid.Nil, false, nil)

		assert.NoError(t, store.SignOut(ctx, "gone"))
		sessions.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		store, _, sessions := newTestStore()
		sessions.On("Get", ctx, "broken").Return(uuid.Nil, false, errors.New("redis down"))

		assert.ErrorContains(t, store.SignOut(ctx, "broken"), "redis down")
	})

	t.Run("delete failure", func(t *testing.T) {
		store, _, sessions := newTestStore()
		sessions.On("Get", ctx, "sess-2").Return(userID, true, nil)
		sessions.On("Delete", ctx, "sess-2").Return(errors.New("redis down"))

		assert.ErrorContains(t, store.SignOut(ctx, "sess-2"), "redis down")
	})
}

func TestStore_FindByUsername(t *testing.T) {
	ctx := context.Background()
	store, users, _ := newTestStore()
	users.On("GetByNormalizedUserName", ctx, "ALICE").Return(&domain.User{UserName: "alice"}, nil)

	user, err := store.FindByUsername(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UserName)

	user, err = store.FindByUsername(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, user)
}
