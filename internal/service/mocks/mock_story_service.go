package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"moments/internal/docstore"
	"moments/internal/model"
	"moments/internal/service"
)

type MockStoryService struct {
	mock.Mock
}

func (m *MockStoryService) CreateStory(ctx context.Context, author service.Author, image io.Reader, upload service.ImageUpload) (*model.Story, error) {
	args := m.Called(ctx, author, image, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Story), args.Error(1)
}

func (m *MockStoryService) GetActiveStories(ctx context.Context) ([]model.StoryGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoryGroup), args.Error(1)
}

func (m *MockStoryService) ViewStory(ctx context.Context, storyID, viewerUID string) error {
	args := m.Called(ctx, storyID, viewerUID)
	return args.Error(0)
}

func (m *MockStoryService) DeleteStory(ctx context.Context, storyID, uid string) error {
	args := m.Called(ctx, storyID, uid)
	return args.Error(0)
}

func (m *MockStoryService) SubscribeToStories(ctx context.Context, onUpdate func([]model.StoryGroup)) (docstore.Subscription, error) {
	args := m.Called(ctx, onUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(docstore.Subscription), args.Error(1)
}
