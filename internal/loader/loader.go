// Package loader pages community feed records into a reconciler.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chozy/feedsync/internal/chozy"
	"github.com/chozy/feedsync/internal/feed"
)

// ErrNoMorePages is returned by LoadMore when the last page was already loaded.
var ErrNoMorePages = errors.New("no more pages")

// PageFetcher fetches one page of raw records.
type PageFetcher interface {
	FetchFeeds(ctx context.Context, q chozy.FeedQuery) (*chozy.FeedPage, error)
}

// Sink receives normalized items; reconcile.Reconciler implements it.
type Sink interface {
	Reset(items ...feed.FeedItem)
	Append(items ...feed.FeedItem)
}

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader fetches pages, normalizes them and hands them to a Sink.
type Loader struct {
	fetcher    PageFetcher
	normalizer feed.Normalizer
	sink       Sink
	logger     *zap.Logger

	mu      sync.Mutex
	query   chozy.FeedQuery
	hasNext bool
	cursor  string
	loaded  bool
}

func New(fetcher PageFetcher, normalizer feed.Normalizer, sink Sink, opts ...Option) *Loader {
	l := &Loader{
		fetcher:    fetcher,
		normalizer: normalizer,
		sink:       sink,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the first page for q and replaces whatever the sink held.
// It returns the number of items handed over.
func (l *Loader) Load(ctx context.Context, q chozy.FeedQuery) (int, error) {
	q.Cursor = ""
	page, err := l.fetcher.FetchFeeds(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to load feed: %w", err)
	}

	items := l.normalize(page)
	l.sink.Reset(items...)

	l.mu.Lock()
	l.query = q
	l.hasNext = page.HasNext && page.NextCursor != ""
	l.cursor = page.NextCursor
	l.loaded = true
	l.mu.Unlock()

	l.logger.Debug("Feed loaded",
		zap.String("tab", string(q.Tab)),
		zap.String("content_type", string(q.ContentType)),
		zap.Int("items", len(items)),
		zap.Bool("has_next", page.HasNext))
	return len(items), nil
}

// LoadMore appends the next page of the last Load.
func (l *Loader) LoadMore(ctx context.Context) (int, error) {
	l.mu.Lock()
	if !l.loaded || !l.hasNext {
		l.mu.Unlock()
		return 0, ErrNoMorePages
	}
	q := l.query
	q.Cursor = l.cursor
	l.mu.Unlock()

	page, err := l.fetcher.FetchFeeds(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to load next page: %w", err)
	}

	items := l.normalize(page)
	l.sink.Append(items...)

	l.mu.Lock()
	l.hasNext = page.HasNext && page.NextCursor != ""
	l.cursor = page.NextCursor
	l.mu.Unlock()

	l.logger.Debug("Feed page appended", zap.String("cursor", q.Cursor), zap.Int("items", len(items)))
	return len(items), nil
}

// Pages loads the first page for q and then up to n-1 more.
func (l *Loader) Pages(ctx context.Context, q chozy.FeedQuery, n int) (int, error) {
	total, err := l.Load(ctx, q)
	if err != nil {
		return 0, err
	}
	for i := 1; i < n; i++ {
		count, err := l.LoadMore(ctx)
		if errors.Is(err, ErrNoMorePages) {
			break
		}
		if err != nil {
			return total, err
		}
		total += count
	}
	return total, nil
}

// HasNext reports whether LoadMore can fetch another page.
func (l *Loader) HasNext() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded && l.hasNext
}

func (l *Loader) normalize(page *chozy.FeedPage) []feed.FeedItem {
	return l.normalizer.NormalizePage(page.Feeds, func(raw feed.RawFeed, err error) {
		l.logger.Warn("Skipping feed record", zap.Int64("feed_id", raw.FeedID), zap.Error(err))
	})
}
