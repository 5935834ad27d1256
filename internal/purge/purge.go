// Package purge is the background sweep that physically removes expired
// content. Expired records are already invisible to every query, so the
// sweep only reclaims rows and blobs; it is optional and disabled by
// default.
package purge

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"moments/internal/docstore"
	"moments/internal/lifecycle"
	"moments/internal/model"
	"moments/internal/storage"
)

// Worker periodically deletes expired posts and stories together with
// their images.
type Worker struct {
	store    docstore.Store
	blobs    storage.Storage
	interval time.Duration
	now      func() time.Time
}

// New creates a purge worker sweeping at the given interval.
func New(store docstore.Store, blobs storage.Storage, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{store: store, blobs: blobs, interval: interval, now: time.Now}
}

// Run sweeps until the context is canceled. The first sweep happens
// after one full interval.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithField("interval", w.interval).Info("purge worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("purge worker stopped")
			return
		case <-ticker.C:
			removed, err := w.SweepOnce(ctx)
			if err != nil {
				log.WithError(err).Warn("purge sweep failed")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("purged expired content")
			}
		}
	}
}

// SweepOnce removes every expired post and story once and returns the
// number of records deleted.
func (w *Worker) SweepOnce(ctx context.Context) (int, error) {
	total := 0
	for _, collection := range []string{lifecycle.CollectionPosts, lifecycle.CollectionStories} {
		n, err := w.sweepCollection(ctx, collection)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (w *Worker) sweepCollection(ctx context.Context, collection string) (int, error) {
	q := docstore.Query{Collection: collection}.
		Where("expiresAt", docstore.OpLessOrEqual, model.FormatTime(w.now()))
	snap, err := w.store.Query(ctx, q)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, doc := range snap {
		// Blob first; a leftover record keeps the reference for the
		// next sweep, a leftover blob would be orphaned.
		if key, ok := doc.Data["imagePath"].(string); ok && key != "" {
			if err := w.blobs.Delete(ctx, key); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"collection": collection,
					"id":         doc.ID,
				}).Warn("expired image not deleted, skipping record")
				continue
			}
		}
		if err := w.store.Delete(ctx, collection, doc.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
