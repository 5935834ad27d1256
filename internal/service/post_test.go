package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moments/internal/apperr"
	"moments/internal/docstore"
	storeMocks "moments/internal/docstore/mocks"
	"moments/internal/lifecycle"
	"moments/internal/model"
	"moments/internal/storage"
	blobMocks "moments/internal/storage/mocks"
)

func storageObject() storage.ObjectInfo {
	return storage.ObjectInfo{Key: "posts/u1/x.jpg", Size: 11, ContentType: "image/jpeg"}
}

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newPostService(store *storeMocks.MockStore, blobs *blobMocks.MockStorage, pageSize int) *postService {
	svc := NewPostService(store, blobs, pageSize).(*postService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		uid        string
		caption    string
		setupMocks func(mStore *storeMocks.MockStore, mBlobs *blobMocks.MockStorage) *strings.Reader
		wantKind   apperr.Kind
	}{
		{
			name:    "happy path",
			uid:     "u1",
			caption: "Saturday sunset",
			setupMocks: func(mStore *storeMocks.MockStore, mBlobs *blobMocks.MockStorage) *strings.Reader {
				r := strings.NewReader("image-bytes")
				keyMatch := mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "posts/u1/") && strings.HasSuffix(key, ".jpg")
				})
				mBlobs.On("Put", ctx, keyMatch, r, mock.Anything).
					Return(storageObject(), nil)
				mBlobs.On("DownloadURL", ctx, keyMatch).
					Return("https://blobs.example/moments/posts/u1/x.jpg", nil)

				mStore.On("Create", ctx, lifecycle.CollectionPosts, mock.MatchedBy(func(data map[string]any) bool {
					return data["userId"] == "u1" &&
						data["caption"] == "Saturday sunset" &&
						data["expiresAt"] == model.FormatTime(testNow.Add(model.ContentTTL))
				})).Return(docstore.Document{ID: "p1", CreatedAt: testNow}, nil)
				return r
			},
		},
		{
			name: "missing user id",
			uid:  "",
			setupMocks: func(*storeMocks.MockStore, *blobMocks.MockStorage) *strings.Reader {
				return strings.NewReader("image-bytes")
			},
			wantKind: apperr.InvalidArgument,
		},
		{
			name: "upload failure",
			uid:  "u1",
			setupMocks: func(mStore *storeMocks.MockStore, mBlobs *blobMocks.MockStorage) *strings.Reader {
				r := strings.NewReader("image-bytes")
				mBlobs.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("bucket gone"))
				return r
			},
			wantKind: apperr.UploadFailed,
		},
		{
			name: "record create failure rolls the image back",
			uid:  "u1",
			setupMocks: func(mStore *storeMocks.MockStore, mBlobs *blobMocks.MockStorage) *strings.Reader {
				r := strings.NewReader("image-bytes")
				mBlobs.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storageObject(), nil)
				mBlobs.On("DownloadURL", ctx, mock.Anything).
					Return("https://blobs.example/x.jpg", nil)
				mStore.On("Create", ctx, lifecycle.CollectionPosts, mock.Anything).
					Return(docstore.Document{}, apperr.New(apperr.RemoteUnavailable, "store unreachable"))
				mBlobs.On("Delete", ctx, mock.Anything).Return(nil)
				return r
			},
			wantKind: apperr.RemoteUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStore)
			mBlobs := new(blobMocks.MockStorage)
			svc := newPostService(mStore, mBlobs, 0)

			r := tt.setupMocks(mStore, mBlobs)

			post, err := svc.CreatePost(ctx, tt.uid, r, ImageUpload{ContentType: "image/jpeg", Size: 11}, tt.caption)

			if tt.wantKind != "" {
				assert.True(t, apperr.IsKind(err, tt.wantKind), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "p1", post.ID)
				assert.Equal(t, testNow.Add(model.ContentTTL), post.ExpiresAt)
				assert.Empty(t, post.Likes)
				assert.Empty(t, post.Comments)
			}
			mStore.AssertExpectations(t)
			mBlobs.AssertExpectations(t)
		})
	}
}

func TestPostService_GetFeed(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	svc := newPostService(mStore, nil, 2)

	mStore.On("Query", ctx, lifecycle.FeedQuery(2)).Return(docstore.Snapshot{
		feedDoc("expired", "u1", testNow.Add(-25*time.Hour)),
		feedDoc("active", "u2", testNow.Add(-time.Hour)),
	}, nil)

	posts, err := svc.GetFeed(ctx)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "active", posts[0].ID)
	mStore.AssertExpectations(t)
}

func TestPostService_GetPostsByUser(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	svc := newPostService(mStore, nil, 0)

	wantQuery := docstore.Query{Collection: lifecycle.CollectionPosts}.
		Where("userId", docstore.OpEqual, "u1").
		OrderedBy("createdAt", true)
	mStore.On("Query", ctx, wantQuery).Return(docstore.Snapshot{
		feedDoc("p1", "u1", testNow.Add(-time.Hour)),
	}, nil)

	posts, err := svc.GetPostsByUser(ctx, "u1")

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "u1", posts[0].UserID)

	_, err = svc.GetPostsByUser(ctx, "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}

func TestPostService_LikeUnlike(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	svc := newPostService(mStore, nil, 0)

	mStore.On("Merge", ctx, lifecycle.CollectionPosts, "p1",
		map[string]any{"likes": docstore.ArrayUnion("u2")}).Return(nil)
	mStore.On("Merge", ctx, lifecycle.CollectionPosts, "p1",
		map[string]any{"likes": docstore.ArrayRemove("u2")}).Return(nil)

	assert.NoError(t, svc.LikePost(ctx, "p1", "u2"))
	assert.NoError(t, svc.UnlikePost(ctx, "p1", "u2"))
	assert.True(t, apperr.IsKind(svc.LikePost(ctx, "", "u2"), apperr.InvalidArgument))
	mStore.AssertExpectations(t)
}

func TestPostService_AddComment(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	svc := newPostService(mStore, nil, 0)

	mStore.On("Merge", ctx, lifecycle.CollectionPosts, "p1", map[string]any{
		"comments": docstore.ArrayUnion(map[string]any{
			"userId":    "u2",
			"userName":  "Maya",
			"text":      "nice",
			"createdAt": model.FormatTime(testNow),
		}),
	}).Return(nil)

	comment, err := svc.AddComment(ctx, "p1", Author{UID: "u2", Name: "Maya"}, "nice")

	require.NoError(t, err)
	assert.Equal(t, "nice", comment.Text)
	assert.Equal(t, testNow, comment.CreatedAt)

	_, err = svc.AddComment(ctx, "p1", Author{UID: "u2"}, "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
	mStore.AssertExpectations(t)
}

func TestPostService_DeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("author deletes record and image", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mBlobs := new(blobMocks.MockStorage)
		svc := newPostService(mStore, mBlobs, 0)

		mStore.On("Get", ctx, lifecycle.CollectionPosts, "p1").
			Return(feedDoc("p1", "u1", testNow), nil)
		mBlobs.On("Delete", ctx, "posts/u1/p1.jpg").Return(nil)
		mStore.On("Delete", ctx, lifecycle.CollectionPosts, "p1").Return(nil)

		assert.NoError(t, svc.DeletePost(ctx, "p1", "u1"))
		mStore.AssertExpectations(t)
		mBlobs.AssertExpectations(t)
	})

	t.Run("non-author is rejected", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		svc := newPostService(mStore, nil, 0)

		mStore.On("Get", ctx, lifecycle.CollectionPosts, "p1").
			Return(feedDoc("p1", "u1", testNow), nil)

		err := svc.DeletePost(ctx, "p1", "intruder")
		assert.True(t, apperr.IsKind(err, apperr.PermissionDenied))
	})

	t.Run("image delete failure keeps the record", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mBlobs := new(blobMocks.MockStorage)
		svc := newPostService(mStore, mBlobs, 0)

		mStore.On("Get", ctx, lifecycle.CollectionPosts, "p1").
			Return(feedDoc("p1", "u1", testNow), nil)
		mBlobs.On("Delete", ctx, "posts/u1/p1.jpg").Return(errors.New("blob store down"))

		err := svc.DeletePost(ctx, "p1", "u1")
		assert.Error(t, err)
		mStore.AssertNotCalled(t, "Delete", ctx, lifecycle.CollectionPosts, "p1")
	})
}

func TestPostService_SubscribeToFeed(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStore)
	svc := newPostService(mStore, nil, 5)

	sub := new(storeMocks.MockSubscription)
	mStore.On("Subscribe", ctx, lifecycle.FeedQuery(5), mock.Anything).Return(sub, nil)

	got, err := svc.SubscribeToFeed(ctx, func([]model.Post) {})

	require.NoError(t, err)
	assert.Same(t, sub, got.(*storeMocks.MockSubscription))
	mStore.AssertExpectations(t)
}

func feedDoc(id, userID string, createdAt time.Time) docstore.Document {
	return docstore.Document{
		ID:        id,
		CreatedAt: createdAt,
		Data: map[string]any{
			"userId":    userID,
			"imageUrl":  "https://blobs.example/moments/posts/" + userID + "/" + id + ".jpg",
			"imagePath": "posts/" + userID + "/" + id + ".jpg",
			"expiresAt": model.FormatTime(createdAt.Add(model.ContentTTL)),
		},
	}
}
