package feed

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultPlaceholderAvatar is used when no placeholder is configured.
const DefaultPlaceholderAvatar = "asset:dummy-profile"

// ErrUnknownContentType is returned for records that are neither POST nor REVIEW.
var ErrUnknownContentType = errors.New("unknown content type")

// Options configures a Normalizer.
type Options struct {
	// PlaceholderAvatar replaces absent or empty author avatars.
	PlaceholderAvatar string
}

// Normalizer maps raw server records to canonical feed items. It holds only
// immutable configuration and is safe for concurrent use.
type Normalizer struct {
	placeholder string
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts Options) Normalizer {
	if opts.PlaceholderAvatar == "" {
		opts.PlaceholderAvatar = DefaultPlaceholderAvatar
	}
	return Normalizer{placeholder: opts.PlaceholderAvatar}
}

// Normalize maps one raw record with the given options.
func Normalize(raw RawFeed, opts Options) (FeedItem, error) {
	return NewNormalizer(opts).Normalize(raw)
}

// Normalize maps one raw record to a FeedItem, filling every absent optional
// field with its default.
func (n Normalizer) Normalize(raw RawFeed) (FeedItem, error) {
	item := FeedItem{
		ID:     raw.FeedID,
		Author: n.author(raw.User),
		Counts: Counts{
			Comments: max(raw.Counts.CommentCount, 0),
			Likes:    max(raw.Counts.LikeCount, 0),
			Dislikes: max(raw.Counts.DislikeCount, 0),
			Quotes:   max(raw.Counts.QuoteCount, 0),
		},
		Viewer:    viewerState(raw.MyState),
		IsMine:    raw.Mine != nil && *raw.Mine,
		CreatedAt: parseCreatedAt(raw.CreatedAt),
	}

	text := deref(raw.Contents.Text)
	images := imageURLs(raw.Contents.Images)

	switch Kind(raw.ContentType) {
	case KindPost:
		item.Kind = KindPost
		item.Post = &PostContent{Text: text, Images: images}
	case KindReview:
		item.Kind = KindReview
		review := raw.Contents.Review
		if review == nil {
			review = &RawReview{}
		}
		item.Review = &ReviewContent{
			Vendor: deref(review.Vendor),
			Title:  deref(review.Title),
			Rating: normalizeRating(review.Rating),
			Text:   text,
			Images: images,
		}
		if raw.Kind == RawKindQuote && raw.Contents.Quote != nil {
			item.Review.Quote = n.quote(raw.Contents.Quote, review)
		}
	default:
		return FeedItem{}, fmt.Errorf("feed %d: %w %q", raw.FeedID, ErrUnknownContentType, raw.ContentType)
	}

	return item, nil
}

// NormalizePage maps a page of records in order. Records that cannot be
// normalized are passed to skip (when non-nil) and left out.
func (n Normalizer) NormalizePage(raws []RawFeed, skip func(RawFeed, error)) []FeedItem {
	items := make([]FeedItem, 0, len(raws))
	for _, raw := range raws {
		item, err := n.Normalize(raw)
		if err != nil {
			if skip != nil {
				skip(raw, err)
			}
			continue
		}
		items = append(items, item)
	}
	return items
}

func (n Normalizer) author(u RawUser) Author {
	avatar := deref(u.ProfileImageURL)
	if avatar == "" {
		avatar = n.placeholder
	}
	return Author{DisplayName: u.Name, Handle: u.UserID, AvatarURL: avatar}
}

// quote builds the one-level quoted payload. A quote that looks like a review
// but carries no product fields borrows them from the outer review.
func (n Normalizer) quote(q *RawQuote, outer *RawReview) *QuotedContent {
	out := &QuotedContent{
		Kind:   KindPost,
		Author: n.author(q.User),
		Text:   deref(q.Text),
		Images: imageURLs(q.Images),
	}

	hasOwnReview := q.Vendor != nil || q.Title != nil || q.Rating != nil
	if !hasOwnReview && Kind(q.ContentType) != KindReview {
		return out
	}

	out.Kind = KindReview
	if hasOwnReview {
		out.Vendor = deref(q.Vendor)
		out.Title = deref(q.Title)
		out.Rating = normalizeRating(q.Rating)
	} else {
		out.Vendor = deref(outer.Vendor)
		out.Title = deref(outer.Title)
		out.Rating = normalizeRating(outer.Rating)
	}
	return out
}

func viewerState(s *RawMyState) ViewerState {
	if s == nil {
		return ViewerState{Reaction: ReactionNone}
	}
	reaction, _ := ParseReaction(s.ReactionType)
	return ViewerState{
		Reaction:   reaction,
		Bookmarked: s.Bookmarked,
		Reposted:   s.Reposted,
	}
}

func imageURLs(images []RawImage) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		if img.ImageURL != "" {
			urls = append(urls, img.ImageURL)
		}
	}
	return urls
}

// normalizeRating clamps to [0, 5] and snaps to the nearest half point.
func normalizeRating(r *float64) float64 {
	if r == nil || math.IsNaN(*r) {
		return 0
	}
	v := math.Min(math.Max(*r, 0), 5)
	return math.Round(v*2) / 2
}

func parseCreatedAt(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
