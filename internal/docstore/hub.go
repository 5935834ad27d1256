package docstore

import (
	"context"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// QueryRunner executes a one-shot query. The Hub uses it to materialize a
// fresh snapshot for every push.
type QueryRunner func(ctx context.Context, q Query) (Snapshot, error)

// Hub implements the store's live-query primitive. Store backends call
// Broadcast after every successful mutation of a collection; the hub then
// re-runs each live query registered against that collection and pushes
// the fresh snapshot to its subscriber.
//
// Each subscription gets a dedicated delivery goroutine, so one
// subscriber always observes snapshots in order. Bursts of mutations may
// coalesce into a single push; every delivered snapshot reflects the
// store state at (or after) the mutation that triggered it.
type Hub struct {
	run QueryRunner

	mu   sync.Mutex
	subs map[*hubSubscription]struct{}
}

// NewHub creates a hub that materializes snapshots with run.
func NewHub(run QueryRunner) *Hub {
	return &Hub{run: run, subs: make(map[*hubSubscription]struct{})}
}

// Subscribe registers a live query and pushes the current snapshot
// immediately. Delivery stops when the returned subscription is
// cancelled or ctx is done.
func (h *Hub) Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Subscription, error) {
	s := &hubSubscription{
		hub:   h,
		query: q,
		fn:    fn,
		ticks: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	// Seed the initial snapshot.
	s.ticks <- struct{}{}

	go s.loop(ctx)
	return s, nil
}

// Broadcast notifies every live query on the given collection that its
// snapshot may have changed.
func (h *Hub) Broadcast(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if s.query.Collection != collection {
			continue
		}
		select {
		case s.ticks <- struct{}{}:
		default:
			// A pending tick already covers this change.
		}
	}
}

func (h *Hub) remove(s *hubSubscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

type hubSubscription struct {
	hub   *Hub
	query Query
	fn    SnapshotFunc

	ticks  chan struct{}
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

func (s *hubSubscription) loop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Unsubscribe()
			return
		case <-s.ticks:
			// Cancellation wins over a concurrently pending tick.
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				s.Unsubscribe()
				return
			default:
			}
			snap, err := s.hub.run(ctx, s.query)
			if err != nil {
				log.WithError(err).WithField("collection", s.query.Collection).
					Warn("live query refresh failed")
				continue
			}
			if !s.deliver(snap) {
				return
			}
		}
	}
}

// deliver invokes the callback unless the subscription was cancelled.
// The callback runs only on the delivery goroutine, so the closed check
// here is what keeps a cancelled subscription silent.
func (s *hubSubscription) deliver(snap Snapshot) bool {
	if s.closed.Load() {
		return false
	}
	s.fn(snap)
	// The callback may have unsubscribed; stop the loop before it pulls
	// another tick.
	return !s.closed.Load()
}

// Unsubscribe cancels the live query. It is idempotent and safe to call
// from inside the snapshot callback: it only signals cancellation, and
// the delivery loop checks the flag before every push, so no snapshot
// is delivered once it has returned.
func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.hub.remove(s)
	})
}
