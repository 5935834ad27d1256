// Package service holds the use-case facades the HTTP layer talks to.
// Each facade validates input, orchestrates the document store, the blob
// store, and the identity provider, and returns typed records with
// classified errors.
package service

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"moments/internal/apperr"
	"moments/internal/docstore"
	"moments/internal/lifecycle"
	"moments/internal/model"
	"moments/internal/storage"
)

// ImageUpload describes the image content accompanying a new post or
// story. Size may be -1 when unknown.
type ImageUpload struct {
	ContentType string
	Size        int64
}

// PostService defines the use cases around ephemeral feed posts.
type PostService interface {
	// CreatePost uploads the image, resolves its download URL, and
	// creates the post record with a 24-hour expiry.
	CreatePost(ctx context.Context, uid string, image io.Reader, upload ImageUpload, caption string) (*model.Post, error)

	// GetFeed returns the active posts, newest first.
	GetFeed(ctx context.Context) ([]model.Post, error)

	// GetPostsByUser returns the author's active posts, newest first.
	GetPostsByUser(ctx context.Context, uid string) ([]model.Post, error)

	// LikePost records a like; liking twice is a no-op.
	LikePost(ctx context.Context, postID, uid string) error

	// UnlikePost removes a like; removing an absent like is a no-op.
	UnlikePost(ctx context.Context, postID, uid string) error

	// AddComment appends a comment to the post.
	AddComment(ctx context.Context, postID string, author Author, text string) (*model.Comment, error)

	// DeletePost removes the post and its image. Only the author may
	// delete.
	DeletePost(ctx context.Context, postID, uid string) error

	// SubscribeToFeed pushes the derived feed on every change.
	SubscribeToFeed(ctx context.Context, onUpdate func([]model.Post)) (docstore.Subscription, error)
}

// Author carries the denormalized display fields stamped onto content
// at creation time.
type Author struct {
	UID    string
	Name   string
	Avatar string
}

type postService struct {
	store    docstore.Store
	blobs    storage.Storage
	pageSize int
	now      func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(store docstore.Store, blobs storage.Storage, pageSize int) PostService {
	if pageSize <= 0 {
		pageSize = lifecycle.DefaultFeedLimit
	}
	return &postService{store: store, blobs: blobs, pageSize: pageSize, now: time.Now}
}

func (s *postService) CreatePost(ctx context.Context, uid string, image io.Reader, upload ImageUpload, caption string) (*model.Post, error) {
	if uid == "" {
		return nil, apperr.New(apperr.InvalidArgument, "user id is required")
	}
	if image == nil {
		return nil, apperr.New(apperr.InvalidArgument, "an image is required")
	}

	key, url, err := uploadImage(ctx, s.blobs, "posts", uid, image, upload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(model.ContentTTL)
	doc, err := s.store.Create(ctx, lifecycle.CollectionPosts, map[string]any{
		"userId":    uid,
		"imageUrl":  url,
		"imagePath": key,
		"caption":   caption,
		"likes":     []any{},
		"comments":  []any{},
		"expiresAt": model.FormatTime(expires),
	})
	if err != nil {
		// Roll the image back so a failed create leaves no orphan blob.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			return nil, apperr.Wrap(apperr.KindOf(err), "create post failed, image rollback failed", delErr)
		}
		return nil, err
	}

	return &model.Post{
		ID:        doc.ID,
		UserID:    uid,
		ImageURL:  url,
		ImagePath: key,
		Caption:   caption,
		Likes:     []string{},
		Comments:  []model.Comment{},
		CreatedAt: doc.CreatedAt,
		ExpiresAt: expires,
	}, nil
}

func (s *postService) GetFeed(ctx context.Context) ([]model.Post, error) {
	snap, err := s.store.Query(ctx, lifecycle.FeedQuery(s.pageSize))
	if err != nil {
		return nil, err
	}
	return lifecycle.FeedView(snap, s.now()), nil
}

func (s *postService) GetPostsByUser(ctx context.Context, uid string) ([]model.Post, error) {
	if uid == "" {
		return nil, apperr.New(apperr.InvalidArgument, "user id is required")
	}
	q := docstore.Query{Collection: lifecycle.CollectionPosts}.
		Where("userId", docstore.OpEqual, uid).
		OrderedBy("createdAt", true)
	snap, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return lifecycle.FeedView(snap, s.now()), nil
}

func (s *postService) LikePost(ctx context.Context, postID, uid string) error {
	if postID == "" || uid == "" {
		return apperr.New(apperr.InvalidArgument, "post id and user id are required")
	}
	return s.store.Merge(ctx, lifecycle.CollectionPosts, postID, map[string]any{
		"likes": docstore.ArrayUnion(uid),
	})
}

func (s *postService) UnlikePost(ctx context.Context, postID, uid string) error {
	if postID == "" || uid == "" {
		return apperr.New(apperr.InvalidArgument, "post id and user id are required")
	}
	return s.store.Merge(ctx, lifecycle.CollectionPosts, postID, map[string]any{
		"likes": docstore.ArrayRemove(uid),
	})
}

func (s *postService) AddComment(ctx context.Context, postID string, author Author, text string) (*model.Comment, error) {
	if postID == "" || author.UID == "" {
		return nil, apperr.New(apperr.InvalidArgument, "post id and user id are required")
	}
	if text == "" {
		return nil, apperr.New(apperr.InvalidArgument, "comment text is required")
	}

	comment := model.Comment{
		UserID:    author.UID,
		UserName:  author.Name,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.Merge(ctx, lifecycle.CollectionPosts, postID, map[string]any{
		"comments": docstore.ArrayUnion(map[string]any{
			"userId":    comment.UserID,
			"userName":  comment.UserName,
			"text":      comment.Text,
			"createdAt": model.FormatTime(comment.CreatedAt),
		}),
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *postService) DeletePost(ctx context.Context, postID, uid string) error {
	if postID == "" {
		return apperr.New(apperr.InvalidArgument, "post id is required")
	}

	doc, err := s.store.Get(ctx, lifecycle.CollectionPosts, postID)
	if err != nil {
		return err
	}
	post, err := model.DecodePost(doc)
	if err != nil {
		return err
	}
	if post.UserID != uid {
		return apperr.New(apperr.PermissionDenied, "only the author can delete a post")
	}

	// Delete the image first; a failure keeps the record so the blob is
	// not orphaned without a reference.
	if post.ImagePath != "" {
		if err := s.blobs.Delete(ctx, post.ImagePath); err != nil {
			return apperr.Wrap(apperr.Unknown, "delete post image", err)
		}
	}
	return s.store.Delete(ctx, lifecycle.CollectionPosts, postID)
}

func (s *postService) SubscribeToFeed(ctx context.Context, onUpdate func([]model.Post)) (docstore.Subscription, error) {
	return lifecycle.SubscribeFeed(ctx, s.store, s.pageSize, s.now, onUpdate)
}

// uploadImage streams the image to the blob store under a fresh key and
// resolves its download URL.
func uploadImage(ctx context.Context, blobs storage.Storage, prefix, uid string, image io.Reader, upload ImageUpload) (key, url string, err error) {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key = path.Join(prefix, uid, uuid.NewString()+extensionFor(contentType))

	if _, err := blobs.Put(ctx, key, image, storage.PutObjectOptions{
		Size:        upload.Size,
		ContentType: contentType,
	}); err != nil {
		return "", "", apperr.Wrap(apperr.UploadFailed, "image upload failed", err)
	}

	url, err = blobs.DownloadURL(ctx, key)
	if err != nil {
		return "", "", apperr.Wrap(apperr.UploadFailed, "resolve image url", err)
	}
	return key, url, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
