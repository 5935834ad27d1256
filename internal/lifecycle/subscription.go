package lifecycle

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"moments/internal/docstore"
	"moments/internal/model"
)

// Collection names of the ephemeral content records.
const (
	CollectionPosts   = "posts"
	CollectionStories = "stories"
)

// DefaultFeedLimit matches the page size the feed has always used.
const DefaultFeedLimit = 20

// FeedQuery selects the newest posts, newest first.
func FeedQuery(limit int) docstore.Query {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return docstore.Query{Collection: CollectionPosts, Limit: limit}.
		OrderedBy("createdAt", true)
}

// ActiveStoriesQuery selects stories that are still active at now,
// ordered ascending by expiry. Expiry strings are fixed-width so the
// store's text comparison matches chronological order.
func ActiveStoriesQuery(now time.Time) docstore.Query {
	return docstore.Query{Collection: CollectionStories}.
		Where("expiresAt", docstore.OpGreaterThan, model.FormatTime(now)).
		OrderedBy("expiresAt", false)
}

// FeedView derives the feed from a raw snapshot: decode, drop expired,
// order newest first. Malformed documents are skipped and logged rather
// than poisoning the whole view.
func FeedView(snap docstore.Snapshot, now time.Time) []model.Post {
	posts := make([]model.Post, 0, len(snap))
	for _, doc := range snap {
		post, err := model.DecodePost(doc)
		if err != nil {
			log.WithError(err).Warn("skipping malformed post document")
			continue
		}
		posts = append(posts, post)
	}
	return OrderFeed(FilterActive(posts, now))
}

// StoriesView derives the story tray from a raw snapshot: decode, drop
// expired, group by author in first-seen order.
func StoriesView(snap docstore.Snapshot, now time.Time) []model.StoryGroup {
	stories := make([]model.Story, 0, len(snap))
	for _, doc := range snap {
		story, err := model.DecodeStory(doc)
		if err != nil {
			log.WithError(err).Warn("skipping malformed story document")
			continue
		}
		stories = append(stories, story)
	}
	return GroupByAuthor(FilterActive(stories, now))
}

// SubscribeFeed registers a live feed query and pushes the derived view
// on every snapshot, in arrival order, one call per snapshot. The
// returned handle is idempotent; after Unsubscribe returns, onUpdate is
// never invoked again.
func SubscribeFeed(ctx context.Context, st docstore.Store, limit int, clock func() time.Time, onUpdate func([]model.Post)) (docstore.Subscription, error) {
	return st.Subscribe(ctx, FeedQuery(limit), func(snap docstore.Snapshot) {
		onUpdate(FeedView(snap, clock()))
	})
}

// SubscribeStories registers a live story query and pushes the derived
// grouped view on every snapshot. The query's expiry bound is fixed at
// subscribe time; the per-snapshot filter re-applies a fresh clock so
// stories expiring mid-subscription drop out of the view.
func SubscribeStories(ctx context.Context, st docstore.Store, clock func() time.Time, onUpdate func([]model.StoryGroup)) (docstore.Subscription, error) {
	return st.Subscribe(ctx, ActiveStoriesQuery(clock()), func(snap docstore.Snapshot) {
		onUpdate(StoriesView(snap, clock()))
	})
}
