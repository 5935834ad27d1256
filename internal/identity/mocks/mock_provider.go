package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"moments/internal/identity"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateAccount(ctx context.Context, email, password string) (identity.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(identity.Session), args.Error(1)
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(identity.Session), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockProvider) VerifyToken(ctx context.Context, token string) (identity.Account, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(identity.Account), args.Error(1)
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockProvider) UpdateDisplayProfile(ctx context.Context, uid, displayName, photoURL string) (identity.Account, error) {
	args := m.Called(ctx, uid, displayName, photoURL)
	return args.Get(0).(identity.Account), args.Error(1)
}

func (m *MockProvider) OnAuthStateChanged(fn func(*identity.Account)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}
