package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments/internal/apperr"
	"moments/internal/docstore"
)

func TestDecodePost(t *testing.T) {
	created := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		doc     docstore.Document
		wantErr bool
		check   func(t *testing.T, p Post)
	}{
		{
			name: "complete document",
			doc: docstore.Document{
				ID:        "p1",
				CreatedAt: created,
				Data: map[string]any{
					"userId":    "u1",
					"imageUrl":  "https://cdn.example/p1.jpg",
					"imagePath": "posts/u1/p1.jpg",
					"caption":   "Saturday sunset ☀️",
					"likes":     []any{"u2", "u3"},
					"comments": []any{
						map[string]any{"userId": "u2", "userName": "Maya", "text": "nice", "createdAt": "2026-08-28T18:05:00.000Z"},
					},
					"expiresAt": "2026-08-29T18:00:00.000Z",
				},
			},
			check: func(t *testing.T, p Post) {
				assert.Equal(t, "Saturday sunset ☀️", p.Caption)
				assert.Equal(t, []string{"u2", "u3"}, p.Likes)
				require.Len(t, p.Comments, 1)
				assert.Equal(t, "Maya", p.Comments[0].UserName)
				assert.Equal(t, created.Add(ContentTTL), p.ExpiresAt)
			},
		},
		{
			name: "missing userId",
			doc: docstore.Document{
				ID:   "p2",
				Data: map[string]any{"imageUrl": "x", "expiresAt": "2026-08-29T18:00:00.000Z"},
			},
			wantErr: true,
		},
		{
			name: "malformed expiresAt",
			doc: docstore.Document{
				ID:   "p3",
				Data: map[string]any{"userId": "u1", "imageUrl": "x", "expiresAt": "tomorrow"},
			},
			wantErr: true,
		},
		{
			name: "likes with non-string element",
			doc: docstore.Document{
				ID: "p4",
				Data: map[string]any{
					"userId": "u1", "imageUrl": "x",
					"likes":     []any{"u2", float64(7)},
					"expiresAt": "2026-08-29T18:00:00.000Z",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := DecodePost(tt.doc)
			if tt.wantErr {
				assert.True(t, apperr.IsKind(err, apperr.Decode))
				return
			}
			require.NoError(t, err)
			tt.check(t, post)
		})
	}
}

func TestDecodeStory(t *testing.T) {
	doc := docstore.Document{
		ID:        "s1",
		CreatedAt: time.Now().UTC(),
		Data: map[string]any{
			"userId":     "u1",
			"userName":   "Emily",
			"userAvatar": "https://cdn.example/a.jpg",
			"imageUrl":   "https://cdn.example/s1.jpg",
			"viewers":    []any{"u2"},
			"expiresAt":  "2026-08-29T18:00:00.000Z",
		},
	}

	story, err := DecodeStory(doc)

	require.NoError(t, err)
	assert.Equal(t, "Emily", story.UserName)
	assert.Equal(t, []string{"u2"}, story.Viewers)
}

func TestDecodeUserProfile_EmptyFieldsDefault(t *testing.T) {
	doc := docstore.Document{ID: "u1", Data: map[string]any{"email": "emily@example.com"}}

	profile, err := DecodeUserProfile(doc)

	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UID)
	assert.Empty(t, profile.Bio)
	assert.Empty(t, profile.Followers)
	assert.Empty(t, profile.Following)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 8, 28, 18, 0, 0, 500_000_000, time.FixedZone("CET", 3600))

	got := FormatTime(ts)

	// Always UTC with a fixed-width millisecond fraction.
	assert.Equal(t, "2026-08-28T17:00:00.500Z", got)

	parsed, err := time.Parse(time.RFC3339, got)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}
