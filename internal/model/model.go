// Package model contains the typed domain records. Raw store documents
// are decoded into these types at the facade boundary; malformed
// documents are rejected with a decode-kind error instead of leaking
// untyped maps into the rest of the program.
package model

import "time"

// ContentTTL is the fixed lifetime of ephemeral content. Expiry is
// computed client-side at creation time, not by the server clock.
const ContentTTL = 24 * time.Hour

// TimeLayout is the wire format for client-computed timestamps. The
// fixed-width millisecond fraction keeps lexicographic string comparison
// consistent with chronological order, which the store's text-based
// filters rely on.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders a timestamp in the wire format, always UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Comment is a single entry in a post's ordered comment list.
type Comment struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is an ephemeral feed entry.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ImageURL  string    `json:"imageUrl"`
	ImagePath string    `json:"imagePath,omitempty"`
	Caption   string    `json:"caption"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expiry implements the lifecycle record contract.
func (p Post) Expiry() time.Time { return p.ExpiresAt }

// Story is an ephemeral story entry with the author's display fields
// denormalized at creation time.
type Story struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	ImageURL   string    `json:"imageUrl"`
	ImagePath  string    `json:"imagePath,omitempty"`
	Viewers    []string  `json:"viewers"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expiry implements the lifecycle record contract.
func (s Story) Expiry() time.Time { return s.ExpiresAt }

// StoryGroup is the derived per-author aggregate of active stories. It
// is recomputed on every snapshot and never persisted.
type StoryGroup struct {
	UserID     string  `json:"userId"`
	UserName   string  `json:"userName"`
	UserAvatar string  `json:"userAvatar"`
	Stories    []Story `json:"stories"`
}

// UserProfile is the stored profile record, sharing its ID with the
// identity account.
type UserProfile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	Bio         string    `json:"bio"`
	CreatedAt   time.Time `json:"createdAt"`
	Followers   []string  `json:"followers"`
	Following   []string  `json:"following"`
}
