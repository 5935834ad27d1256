// Package lifecycle is the content lifecycle engine: pure transforms
// that turn raw store snapshots into the views consumers render. It
// excludes expired records, groups active stories by author, and orders
// the feed. The engine owns no state; every snapshot is re-derived from
// scratch.
package lifecycle

import (
	"slices"
	"time"

	"moments/internal/model"
)

// Record is any ephemeral record carrying a client-computed expiry.
type Record interface {
	Expiry() time.Time
}

// FilterActive returns only the records whose expiry lies strictly after
// now. A record expiring exactly at now is already expired. Input order
// is preserved, and the result is independent of how many times the
// filter runs for a fixed now.
func FilterActive[R Record](records []R, now time.Time) []R {
	active := make([]R, 0, len(records))
	for _, r := range records {
		if r.Expiry().After(now) {
			active = append(active, r)
		}
	}
	return active
}

// GroupByAuthor partitions active stories into one group per author.
// Groups appear in first-seen author order and take their display fields
// from the author's first story; stories within a group keep input order
// (the upstream query orders ascending by expiry). Every story lands in
// exactly one group and no group is empty.
func GroupByAuthor(stories []model.Story) []model.StoryGroup {
	groups := make([]model.StoryGroup, 0)
	index := make(map[string]int)

	for _, story := range stories {
		i, ok := index[story.UserID]
		if !ok {
			i = len(groups)
			index[story.UserID] = i
			groups = append(groups, model.StoryGroup{
				UserID:     story.UserID,
				UserName:   story.UserName,
				UserAvatar: story.UserAvatar,
			})
		}
		groups[i].Stories = append(groups[i].Stories, story)
	}
	return groups
}

// OrderFeed returns posts ordered newest first. Posts with equal
// creation timestamps keep their relative input order, which is the
// store's own document ordering.
func OrderFeed(posts []model.Post) []model.Post {
	ordered := slices.Clone(posts)
	slices.SortStableFunc(ordered, func(a, b model.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return ordered
}
