package service

import (
	"context"
	"io"
	"time"

	"moments/internal/apperr"
	"moments/internal/docstore"
	"moments/internal/lifecycle"
	"moments/internal/model"
	"moments/internal/storage"
)

// StoryService defines the use cases around ephemeral stories.
type StoryService interface {
	// CreateStory uploads the image and creates the story record with
	// the author's display fields denormalized onto it.
	CreateStory(ctx context.Context, author Author, image io.Reader, upload ImageUpload) (*model.Story, error)

	// GetActiveStories returns the active stories grouped by author.
	GetActiveStories(ctx context.Context) ([]model.StoryGroup, error)

	// ViewStory records a viewer; repeat views are a no-op.
	ViewStory(ctx context.Context, storyID, viewerUID string) error

	// DeleteStory removes the story and its image. Only the author may
	// delete.
	DeleteStory(ctx context.Context, storyID, uid string) error

	// SubscribeToStories pushes the derived story tray on every change.
	SubscribeToStories(ctx context.Context, onUpdate func([]model.StoryGroup)) (docstore.Subscription, error)
}

type storyService struct {
	store docstore.Store
	blobs storage.Storage
	now   func() time.Time
}

// NewStoryService constructs a StoryService.
func NewStoryService(store docstore.Store, blobs storage.Storage) StoryService {
	return &storyService{store: store, blobs: blobs, now: time.Now}
}

func (s *storyService) CreateStory(ctx context.Context, author Author, image io.Reader, upload ImageUpload) (*model.Story, error) {
	if author.UID == "" {
		return nil, apperr.New(apperr.InvalidArgument, "user id is required")
	}
	if image == nil {
		return nil, apperr.New(apperr.InvalidArgument, "an image is required")
	}

	key, url, err := uploadImage(ctx, s.blobs, "stories", author.UID, image, upload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(model.ContentTTL)
	doc, err := s.store.Create(ctx, lifecycle.CollectionStories, map[string]any{
		"userId":     author.UID,
		"userName":   author.Name,
		"userAvatar": author.Avatar,
		"imageUrl":   url,
		"imagePath":  key,
		"viewers":    []any{},
		"expiresAt":  model.FormatTime(expires),
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			return nil, apperr.Wrap(apperr.KindOf(err), "create story failed, image rollback failed", delErr)
		}
		return nil, err
	}

	return &model.Story{
		ID:         doc.ID,
		UserID:     author.UID,
		UserName:   author.Name,
		UserAvatar: author.Avatar,
		ImageURL:   url,
		ImagePath:  key,
		Viewers:    []string{},
		CreatedAt:  doc.CreatedAt,
		ExpiresAt:  expires,
	}, nil
}

func (s *storyService) GetActiveStories(ctx context.Context) ([]model.StoryGroup, error) {
	now := s.now()
	snap, err := s.store.Query(ctx, lifecycle.ActiveStoriesQuery(now))
	if err != nil {
		return nil, err
	}
	return lifecycle.StoriesView(snap, now), nil
}

func (s *storyService) ViewStory(ctx context.Context, storyID, viewerUID string) error {
	if storyID == "" || viewerUID == "" {
		return apperr.New(apperr.InvalidArgument, "story id and user id are required")
	}
	return s.store.Merge(ctx, lifecycle.CollectionStories, storyID, map[string]any{
		"viewers": docstore.ArrayUnion(viewerUID),
	})
}

func (s *storyService) DeleteStory(ctx context.Context, storyID, uid string) error {
	if storyID == "" {
		return apperr.New(apperr.InvalidArgument, "story id is required")
	}

	doc, err := s.store.Get(ctx, lifecycle.CollectionStories, storyID)
	if err != nil {
		return err
	}
	story, err := model.DecodeStory(doc)
	if err != nil {
		return err
	}
	if story.UserID != uid {
		return apperr.New(apperr.PermissionDenied, "only the author can delete a story")
	}

	if story.ImagePath != "" {
		if err := s.blobs.Delete(ctx, story.ImagePath); err != nil {
			return apperr.Wrap(apperr.Unknown, "delete story image", err)
		}
	}
	return s.store.Delete(ctx, lifecycle.CollectionStories, storyID)
}

func (s *storyService) SubscribeToStories(ctx context.Context, onUpdate func([]model.StoryGroup)) (docstore.Subscription, error) {
	return lifecycle.SubscribeStories(ctx, s.store, s.now, onUpdate)
}
