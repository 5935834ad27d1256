package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments/internal/docstore"
	"moments/internal/model"
)

// fakeStore captures the snapshot callback so tests can push snapshots
// by hand and observe the derived views.
type fakeStore struct {
	mu    sync.Mutex
	query docstore.Query
	fn    docstore.SnapshotFunc
	sub   *fakeSubscription
}

type fakeSubscription struct {
	store *fakeStore
	once  sync.Once
	calls int
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.store.mu.Lock()
		s.store.fn = nil
		s.store.mu.Unlock()
	})
	s.calls++
}

func (f *fakeStore) Create(context.Context, string, map[string]any) (docstore.Document, error) {
	panic("not used")
}
func (f *fakeStore) Set(context.Context, string, string, map[string]any) (docstore.Document, error) {
	panic("not used")
}
func (f *fakeStore) Get(context.Context, string, string) (docstore.Document, error) {
	panic("not used")
}
func (f *fakeStore) Merge(context.Context, string, string, map[string]any) error { panic("not used") }
func (f *fakeStore) Delete(context.Context, string, string) error                { panic("not used") }
func (f *fakeStore) Query(context.Context, docstore.Query) (docstore.Snapshot, error) {
	return docstore.Snapshot{}, nil
}

func (f *fakeStore) Subscribe(_ context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
	f.fn = fn
	f.sub = &fakeSubscription{store: f}
	return f.sub, nil
}

func (f *fakeStore) push(snap docstore.Snapshot) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func postDoc(id, userID string, createdAt, expiresAt time.Time) docstore.Document {
	return docstore.Document{
		ID:        id,
		CreatedAt: createdAt,
		Data: map[string]any{
			"userId":    userID,
			"imageUrl":  "https://cdn.example/" + id + ".jpg",
			"expiresAt": model.FormatTime(expiresAt),
		},
	}
}

func storyDoc(id, userID, userName string, expiresAt time.Time) docstore.Document {
	return docstore.Document{
		ID: id,
		Data: map[string]any{
			"userId":    userID,
			"userName":  userName,
			"imageUrl":  "https://cdn.example/" + id + ".jpg",
			"expiresAt": model.FormatTime(expiresAt),
		},
	}
}

func TestSubscribeFeed_PipelinesEverySnapshot(t *testing.T) {
	st := &fakeStore{}
	clock := func() time.Time { return now }

	var views [][]model.Post
	sub, err := SubscribeFeed(context.Background(), st, 20, clock, func(posts []model.Post) {
		views = append(views, posts)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, CollectionPosts, st.query.Collection)
	assert.Equal(t, 20, st.query.Limit)

	st.push(docstore.Snapshot{
		postDoc("expired", "u1", now.Add(-25*time.Hour), now.Add(-time.Millisecond)),
		postDoc("older", "u1", now.Add(-2*time.Hour), now.Add(22*time.Hour)),
		postDoc("newer", "u2", now.Add(-time.Hour), now.Add(23*time.Hour)),
	})
	st.push(docstore.Snapshot{})

	require.Len(t, views, 2)
	require.Len(t, views[0], 2)
	assert.Equal(t, "newer", views[0][0].ID)
	assert.Equal(t, "older", views[0][1].ID)
	assert.Empty(t, views[1])
}

func TestSubscribeFeed_SkipsMalformedDocuments(t *testing.T) {
	st := &fakeStore{}

	var views [][]model.Post
	_, err := SubscribeFeed(context.Background(), st, 0, func() time.Time { return now }, func(posts []model.Post) {
		views = append(views, posts)
	})
	require.NoError(t, err)

	st.push(docstore.Snapshot{
		{ID: "bad", Data: map[string]any{"caption": "no required fields"}},
		postDoc("good", "u1", now, now.Add(time.Hour)),
	})

	require.Len(t, views, 1)
	require.Len(t, views[0], 1)
	assert.Equal(t, "good", views[0][0].ID)
}

func TestSubscribeStories_GroupsAndRefiltersWithFreshClock(t *testing.T) {
	st := &fakeStore{}

	current := now
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	var views [][]model.StoryGroup
	_, err := SubscribeStories(context.Background(), st, clock, func(groups []model.StoryGroup) {
		views = append(views, groups)
	})
	require.NoError(t, err)

	assert.Equal(t, CollectionStories, st.query.Collection)
	require.Len(t, st.query.Filters, 1)
	assert.Equal(t, "expiresAt", st.query.Filters[0].Field)
	assert.Equal(t, docstore.OpGreaterThan, st.query.Filters[0].Op)

	snap := docstore.Snapshot{
		storyDoc("s1", "emily", "Emily", now.Add(time.Hour)),
		storyDoc("s2", "noah", "Noah", now.Add(2*time.Hour)),
		storyDoc("s3", "emily", "Emily", now.Add(3*time.Hour)),
	}
	st.push(snap)

	// The same snapshot delivered later, once s1 has expired, must drop
	// it even though the query bound was fixed at subscribe time.
	mu.Lock()
	current = now.Add(time.Hour)
	mu.Unlock()
	st.push(snap)

	require.Len(t, views, 2)
	require.Len(t, views[0], 2)
	assert.Equal(t, "emily", views[0][0].UserID)
	assert.Len(t, views[0][0].Stories, 2)
	assert.Equal(t, "noah", views[0][1].UserID)

	// With s1 expired the active input order is s2 then s3, so noah is
	// now the first-seen author.
	require.Len(t, views[1], 2)
	assert.Equal(t, "noah", views[1][0].UserID)
	require.Len(t, views[1][0].Stories, 1)
	assert.Equal(t, "s2", views[1][0].Stories[0].ID)
	assert.Equal(t, "emily", views[1][1].UserID)
	require.Len(t, views[1][1].Stories, 1)
	assert.Equal(t, "s3", views[1][1].Stories[0].ID)
}

func TestSubscribeFeed_UnsubscribeSilencesUpdates(t *testing.T) {
	st := &fakeStore{}

	var views int
	sub, err := SubscribeFeed(context.Background(), st, 0, func() time.Time { return now }, func([]model.Post) {
		views++
	})
	require.NoError(t, err)

	st.push(docstore.Snapshot{})
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	st.push(docstore.Snapshot{})

	assert.Equal(t, 1, views)
}
