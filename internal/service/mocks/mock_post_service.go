package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"moments/internal/docstore"
	"moments/internal/model"
	"moments/internal/service"
)

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) CreatePost(ctx context.Context, uid string, image io.Reader, upload service.ImageUpload, caption string) (*model.Post, error) {
	args := m.Called(ctx, uid, image, upload, caption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) GetFeed(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostService) GetPostsByUser(ctx context.Context, uid string) ([]model.Post, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostService) LikePost(ctx context.Context, postID, uid string) error {
	args := m.Called(ctx, postID, uid)
	return args.Error(0)
}

func (m *MockPostService) UnlikePost(ctx context.Context, postID, uid string) error {
	args := m.Called(ctx, postID, uid)
	return args.Error(0)
}

func (m *MockPostService) AddComment(ctx context.Context, postID string, author service.Author, text string) (*model.Comment, error) {
	args := m.Called(ctx, postID, author, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockPostService) DeletePost(ctx context.Context, postID, uid string) error {
	args := m.Called(ctx, postID, uid)
	return args.Error(0)
}

func (m *MockPostService) SubscribeToFeed(ctx context.Context, onUpdate func([]model.Post)) (docstore.Subscription, error) {
	args := m.Called(ctx, onUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docstore.Subscription), args.Error(1)
}
