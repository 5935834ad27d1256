package model

import (
	"time"

	"moments/internal/apperr"
	"moments/internal/docstore"
)

// DecodePost validates and converts a raw document into a Post.
func DecodePost(doc docstore.Document) (Post, error) {
	d := decoder{collection: "posts", id: doc.ID, data: doc.Data}

	post := Post{
		ID:        doc.ID,
		UserID:    d.requiredString("userId"),
		ImageURL:  d.requiredString("imageUrl"),
		ImagePath: d.optionalString("imagePath"),
		Caption:   d.optionalString("caption"),
		Likes:     d.stringSlice("likes"),
		Comments:  d.comments("comments"),
		CreatedAt: doc.CreatedAt,
		ExpiresAt: d.requiredTime("expiresAt"),
	}
	return post, d.err
}

// DecodeStory validates and converts a raw document into a Story.
func DecodeStory(doc docstore.Document) (Story, error) {
	d := decoder{collection: "stories", id: doc.ID, data: doc.Data}

	story := Story{
		ID:         doc.ID,
		UserID:     d.requiredString("userId"),
		UserName:   d.optionalString("userName"),
		UserAvatar: d.optionalString("userAvatar"),
		ImageURL:   d.requiredString("imageUrl"),
		ImagePath:  d.optionalString("imagePath"),
		Viewers:    d.stringSlice("viewers"),
		CreatedAt:  doc.CreatedAt,
		ExpiresAt:  d.requiredTime("expiresAt"),
	}
	return story, d.err
}

// DecodeUserProfile validates and converts a raw document into a
// UserProfile.
func DecodeUserProfile(doc docstore.Document) (UserProfile, error) {
	d := decoder{collection: "users", id: doc.ID, data: doc.Data}

	profile := UserProfile{
		UID:         doc.ID,
		Email:       d.optionalString("email"),
		DisplayName: d.optionalString("displayName"),
		PhotoURL:    d.optionalString("photoURL"),
		Bio:         d.optionalString("bio"),
		CreatedAt:   doc.CreatedAt,
		Followers:   d.stringSlice("followers"),
		Following:   d.stringSlice("following"),
	}
	return profile, d.err
}

// decoder accumulates the first field error while reading a document, so
// decode call sites stay flat.
type decoder struct {
	collection string
	id         string
	data       map[string]any
	err        error
}

func (d *decoder) fail(field, reason string) {
	if d.err == nil {
		d.err = apperr.Newf(apperr.Decode, "%s/%s: field %q %s", d.collection, d.id, field, reason)
	}
}

func (d *decoder) requiredString(field string) string {
	v, ok := d.data[field]
	if !ok || v == nil {
		d.fail(field, "is missing")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(field, "is not a string")
		return ""
	}
	if s == "" {
		d.fail(field, "is empty")
	}
	return s
}

func (d *decoder) optionalString(field string) string {
	v, ok := d.data[field]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(field, "is not a string")
		return ""
	}
	return s
}

func (d *decoder) requiredTime(field string) time.Time {
	raw := d.requiredString(field)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		d.fail(field, "is not a timestamp")
		return time.Time{}
	}
	return t
}

func (d *decoder) stringSlice(field string) []string {
	v, ok := d.data[field]
	if !ok || v == nil {
		return []string{}
	}
	arr, ok := v.([]any)
	if !ok {
		d.fail(field, "is not an array")
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			d.fail(field, "contains a non-string element")
			return []string{}
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) comments(field string) []Comment {
	v, ok := d.data[field]
	if !ok || v == nil {
		return []Comment{}
	}
	arr, ok := v.([]any)
	if !ok {
		d.fail(field, "is not an array")
		return []Comment{}
	}
	out := make([]Comment, 0, len(arr))
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			d.fail(field, "contains a malformed comment")
			return []Comment{}
		}
		c := Comment{}
		if s, ok := m["userId"].(string); ok {
			c.UserID = s
		}
		if s, ok := m["userName"].(string); ok {
			c.UserName = s
		}
		if s, ok := m["text"].(string); ok {
			c.Text = s
		}
		if s, ok := m["createdAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				c.CreatedAt = t
			}
		}
		out = append(out, c)
	}
	return out
}
