package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"moments/internal/identity"
	"moments/internal/model"
	"moments/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.Get(0).(identity.Session), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(identity.Session), args.Error(1)
}

func (m *MockAuthService) LogOut(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthService) VerifyToken(ctx context.Context, token string) (identity.Account, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(identity.Account), args.Error(1)
}

func (m *MockAuthService) GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockAuthService) UpdateUserProfile(ctx context.Context, uid string, update service.ProfileUpdate) (*model.UserProfile, error) {
	args := m.Called(ctx, uid, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockAuthService) OnAuthStateChange(fn func(*identity.Account)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}
