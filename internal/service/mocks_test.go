package service

import (
	"context"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockUserStore mocks the domain.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByUsername(ctx context.Context, userName string) (*domain.User, error) {
	args := m.Called(ctx, userName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *MockUserStore) PasswordSignIn(ctx context.Context, userName, password string, persistent, lockoutOnFailure bool) (domain.SignInResult, error) {
	args := m.Called(ctx, userName, password, persistent, lockoutOnFailure)
	return args.Get(0).(domain.SignInResult), args.Error(1)
}

func (m *MockUserStore) SignIn(ctx context.Context, user *domain.User, persistent bool) (string, error) {
	args := m.Called(ctx, user, persistent)
	return args.String(0), args.Error(1)
}

func (m *MockUserStore) SignOut(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
