package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments/internal/model"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func activeStory(id, userID, userName string, createdAt time.Time) model.Story {
	return model.Story{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(model.ContentTTL),
	}
}

func TestFilterActive(t *testing.T) {
	tests := []struct {
		name    string
		expiry  time.Time
		wantKep bool
	}{
		{"expires later", now.Add(time.Hour), true},
		{"expires one millisecond later", now.Add(time.Millisecond), true},
		{"expires exactly now", now, false},
		{"expired one millisecond ago", now.Add(-time.Millisecond), false},
		{"long expired", now.Add(-model.ContentTTL), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := []model.Post{{ID: "p", ExpiresAt: tt.expiry}}
			got := FilterActive(posts, now)
			if tt.wantKep {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterActive_PreservesOrderAndIsIdempotent(t *testing.T) {
	posts := []model.Post{
		{ID: "a", ExpiresAt: now.Add(time.Hour)},
		{ID: "b", ExpiresAt: now.Add(-time.Hour)},
		{ID: "c", ExpiresAt: now.Add(2 * time.Hour)},
		{ID: "d", ExpiresAt: now},
		{ID: "e", ExpiresAt: now.Add(time.Minute)},
	}

	once := FilterActive(posts, now)
	twice := FilterActive(once, now)

	ids := func(ps []model.Post) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	assert.Equal(t, []string{"a", "c", "e"}, ids(once))
	assert.Equal(t, ids(once), ids(twice))
}

func TestGroupByAuthor_SingleAuthorKeepsInputOrder(t *testing.T) {
	t0 := now.Add(-3 * time.Hour)
	stories := []model.Story{
		activeStory("s0", "emily", "Emily", t0),
		activeStory("s1", "emily", "Emily", t0.Add(time.Hour)),
		activeStory("s2", "emily", "Emily", t0.Add(2*time.Hour)),
	}

	groups := GroupByAuthor(stories)

	require.Len(t, groups, 1)
	assert.Equal(t, "Emily", groups[0].UserName)
	require.Len(t, groups[0].Stories, 3)
	assert.Equal(t, "s0", groups[0].Stories[0].ID)
	assert.Equal(t, "s1", groups[0].Stories[1].ID)
	assert.Equal(t, "s2", groups[0].Stories[2].ID)
}

func TestGroupByAuthor_PartitionsExactly(t *testing.T) {
	stories := []model.Story{
		activeStory("s1", "emily", "Emily", now),
		activeStory("s2", "noah", "Noah", now),
		activeStory("s3", "emily", "Emily", now),
		activeStory("s4", "ava", "Ava", now),
		activeStory("s5", "noah", "Noah", now),
	}

	groups := GroupByAuthor(stories)

	// First-seen author order.
	require.Len(t, groups, 3)
	assert.Equal(t, "emily", groups[0].UserID)
	assert.Equal(t, "noah", groups[1].UserID)
	assert.Equal(t, "ava", groups[2].UserID)

	// Union of groups equals the input, each story exactly once, and
	// every story sits under its own author.
	seen := map[string]int{}
	for _, g := range groups {
		assert.NotEmpty(t, g.Stories)
		for _, s := range g.Stories {
			seen[s.ID]++
			assert.Equal(t, g.UserID, s.UserID)
		}
	}
	assert.Len(t, seen, len(stories))
	for id, n := range seen {
		assert.Equalf(t, 1, n, "story %s grouped %d times", id, n)
	}
}

func TestGroupByAuthor_Empty(t *testing.T) {
	assert.Empty(t, GroupByAuthor(nil))
}

func TestOrderFeed_NewestFirstStableTies(t *testing.T) {
	t0 := now.Add(-time.Hour)
	posts := []model.Post{
		{ID: "old", CreatedAt: t0},
		{ID: "tie-a", CreatedAt: now},
		{ID: "tie-b", CreatedAt: now},
		{ID: "mid", CreatedAt: t0.Add(30 * time.Minute)},
	}

	ordered := OrderFeed(posts)

	require.Len(t, ordered, 4)
	assert.Equal(t, "tie-a", ordered[0].ID)
	assert.Equal(t, "tie-b", ordered[1].ID)
	assert.Equal(t, "mid", ordered[2].ID)
	assert.Equal(t, "old", ordered[3].ID)

	// Input untouched.
	assert.Equal(t, "old", posts[0].ID)
}
