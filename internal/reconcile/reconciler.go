// Package reconcile applies optimistic viewer interactions to a screen's feed
// items and reconciles them with the server.
//
// A toggle mutates the held item immediately, then sends the request. The
// server's answer overwrites the prediction; a failure restores the state the
// item had right before that toggle. Toggles on the same item may overlap:
// each one snapshots the state preceding its own optimistic step, and an
// older toggle resolving late never clobbers a newer one.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chozy/feedsync/internal/feed"
	"github.com/chozy/feedsync/pkg/credential"
)

const defaultEventBuffer = 16

// API is the network boundary the reconciler submits interactions to.
type API interface {
	SubmitReaction(ctx context.Context, feedID int64, like bool) (feed.ReactionState, error)
	SubmitBookmark(ctx context.Context, feedID int64, bookmarked bool) (bool, error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(r *Reconciler) {
		r.eventBuffer = n
	}
}

type reactionSnap struct {
	reaction feed.Reaction
	likes    int64
	dislikes int64
}

type entry struct {
	item     feed.FeedItem
	reaction lane[reactionSnap]
	bookmark lane[bool]
}

func (e *entry) reactionSnap() reactionSnap {
	return reactionSnap{
		reaction: e.item.Viewer.Reaction,
		likes:    e.item.Counts.Likes,
		dislikes: e.item.Counts.Dislikes,
	}
}

func (e *entry) setReaction(s reactionSnap) {
	e.item.Viewer.Reaction = s.reaction
	e.item.Counts.Likes = max(s.likes, 0)
	e.item.Counts.Dislikes = max(s.dislikes, 0)
}

// Reconciler owns the ordered feed items of one screen.
type Reconciler struct {
	api         API
	creds       credential.Source
	logger      *zap.Logger
	eventBuffer int

	mu      sync.Mutex
	order   []int64
	entries map[int64]*entry
	events  chan Event
	closed  bool
}

// New creates a Reconciler that submits through api and checks creds before
// every interaction.
func New(api API, creds credential.Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:         api,
		creds:       creds,
		logger:      zap.NewNop(),
		eventBuffer: defaultEventBuffer,
		entries:     make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.events = make(chan Event, max(r.eventBuffer, 0))
	return r
}

// Events delivers NotAuthenticated and RequestFailed conditions. Events are
// dropped rather than blocking when nobody keeps up with the channel.
func (r *Reconciler) Events() <-chan Event {
	return r.events
}

// Close closes the event channel. Toggles still work afterwards but emit
// nothing.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
}

// Append adds items after the ones already held. An item whose ID is already
// held replaces it in place and drops its in-flight bookkeeping, so results
// still pending for the old copy are discarded.
func (r *Reconciler) Append(items ...feed.FeedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(items)
}

// Reset drops every held item, with its in-flight bookkeeping, and holds
// items instead. Results that arrive later for dropped items are discarded.
func (r *Reconciler) Reset(items ...feed.FeedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.entries = make(map[int64]*entry, len(items))
	r.appendLocked(items)
}

func (r *Reconciler) appendLocked(items []feed.FeedItem) {
	for _, item := range items {
		if _, held := r.entries[item.ID]; !held {
			r.order = append(r.order, item.ID)
		}
		r.entries[item.ID] = &entry{item: item.Clone()}
	}
}

// Snapshot returns copies of the held items in order, filtered by opts.
func (r *Reconciler) Snapshot(opts feed.FeedOptions) []feed.FeedItem {
	r.mu.Lock()
	items := make([]feed.FeedItem, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.entries[id].item.Clone())
	}
	r.mu.Unlock()
	return feed.Filter(items, opts)
}

// Get returns a copy of one held item.
func (r *Reconciler) Get(feedID int64) (feed.FeedItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[feedID]
	if !ok {
		return feed.FeedItem{}, false
	}
	return e.item.Clone(), true
}

// Len returns the number of held items.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// ToggleReaction applies desired (LIKE or DISLIKE) to a held item, clearing it
// when the item already carries that reaction. The new state is visible as
// soon as the optimistic step runs; the call returns once the server answered.
// Unknown feed IDs are a logged no-op.
func (r *Reconciler) ToggleReaction(ctx context.Context, feedID int64, desired feed.Reaction) error {
	if desired != feed.ReactionLike && desired != feed.ReactionDislike {
		return fmt.Errorf("%w: %q", ErrInvalidReaction, desired)
	}
	log := r.logger.With(zap.Int64("feed_id", feedID), zap.String("desired", string(desired)))

	e, ok := r.lookup(feedID)
	if !ok {
		log.Info("Reaction ignored: feed not held")
		return nil
	}
	if err := r.authorize(ctx, feedID); err != nil {
		log.Info("Reaction needs sign in")
		return err
	}

	r.mu.Lock()
	if r.entries[feedID] != e {
		r.mu.Unlock()
		log.Info("Reaction ignored: feed dropped")
		return nil
	}
	before := e.reactionSnap()
	counts, next := feed.ApplyReaction(e.item.Counts, before.reaction, desired)
	e.item.Counts = counts
	e.item.Viewer.Reaction = next
	seq := e.reaction.begin(before)
	r.mu.Unlock()

	log.Debug("Reaction applied optimistically",
		zap.Uint64("seq", seq),
		zap.String("from", string(before.reaction)),
		zap.String("to", string(next)))

	state, err := r.api.SubmitReaction(ctx, feedID, desired == feed.ReactionLike)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[feedID] != e {
		log.Debug("Reaction result dropped: feed no longer held", zap.Uint64("seq", seq))
		return nil
	}

	if err != nil {
		restore, owns := e.reaction.fail(seq)
		if owns {
			e.setReaction(restore)
		}
		log.Warn("Reaction rolled back", zap.Uint64("seq", seq), zap.Bool("restored", owns), zap.Error(err))
		return r.failLocked(ctx, feedID, err)
	}

	confirmed := reactionSnap{reaction: state.Reaction, likes: state.Likes, dislikes: state.Dislikes}
	if e.reaction.succeed(seq, confirmed) {
		if current := e.reactionSnap(); current != confirmed {
			log.Debug("Server corrected reaction",
				zap.String("predicted", string(current.reaction)),
				zap.String("confirmed", string(confirmed.reaction)),
				zap.Int64("likes", confirmed.likes),
				zap.Int64("dislikes", confirmed.dislikes))
			e.setReaction(confirmed)
		}
	}
	return nil
}

// ToggleBookmark flips the viewer's bookmark on a held item and reconciles
// with the server like ToggleReaction does.
func (r *Reconciler) ToggleBookmark(ctx context.Context, feedID int64) error {
	log := r.logger.With(zap.Int64("feed_id", feedID))

	e, ok := r.lookup(feedID)
	if !ok {
		log.Info("Bookmark ignored: feed not held")
		return nil
	}
	if err := r.authorize(ctx, feedID); err != nil {
		log.Info("Bookmark needs sign in")
		return err
	}

	r.mu.Lock()
	if r.entries[feedID] != e {
		r.mu.Unlock()
		log.Info("Bookmark ignored: feed dropped")
		return nil
	}
	before := e.item.Viewer.Bookmarked
	want := !before
	e.item.Viewer.Bookmarked = want
	seq := e.bookmark.begin(before)
	r.mu.Unlock()

	confirmed, err := r.api.SubmitBookmark(ctx, feedID, want)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[feedID] != e {
		log.Debug("Bookmark result dropped: feed no longer held", zap.Uint64("seq", seq))
		return nil
	}

	if err != nil {
		restore, owns := e.bookmark.fail(seq)
		if owns {
			e.item.Viewer.Bookmarked = restore
		}
		log.Warn("Bookmark rolled back", zap.Uint64("seq", seq), zap.Bool("restored", owns), zap.Error(err))
		return r.failLocked(ctx, feedID, err)
	}

	if e.bookmark.succeed(seq, confirmed) {
		e.item.Viewer.Bookmarked = confirmed
	}
	return nil
}

// InFlight reports how many requests are pending for one item.
func (r *Reconciler) InFlight(feedID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[feedID]
	if !ok {
		return 0
	}
	return e.reaction.inFlight() + e.bookmark.inFlight()
}

func (r *Reconciler) lookup(feedID int64) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[feedID]
	return e, ok
}

func (r *Reconciler) authorize(ctx context.Context, feedID int64) error {
	if r.creds != nil {
		if _, ok := r.creds.Credential(ctx); ok {
			return nil
		}
	}
	cond := &ConditionError{FeedID: feedID, Kind: NotAuthenticated}
	r.mu.Lock()
	r.emitLocked(cond.event())
	r.mu.Unlock()
	return cond
}

// failLocked classifies a request failure. A canceled caller already knows
// why, so it gets its context error back and no event is emitted.
func (r *Reconciler) failLocked(ctx context.Context, feedID int64, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	kind := RequestFailed
	if errors.Is(err, credential.ErrUnauthorized) {
		kind = NotAuthenticated
	}
	cond := &ConditionError{FeedID: feedID, Kind: kind, Err: err}
	r.emitLocked(cond.event())
	return cond
}

func (r *Reconciler) emitLocked(ev Event) {
	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	default:
		r.logger.Warn("Event dropped: channel full",
			zap.Int64("feed_id", ev.FeedID),
			zap.String("kind", string(ev.Kind)))
	}
}
