// Package feed holds the canonical client-side model of a Chozy community feed.
//
// This package enables chozy to:
// - Represent posts and reviews (with at most one level of quoted content) uniformly
// - Normalize the server's partial, variant wire records into that model
// - Compute reaction transitions without touching the network
package feed

import "time"

// Kind identifies which content variant a feed item carries.
type Kind string

const (
	KindPost   Kind = "POST"
	KindReview Kind = "REVIEW"
)

// Reaction is the viewer's reaction to a feed item.
type Reaction string

const (
	ReactionNone    Reaction = "NONE"
	ReactionLike    Reaction = "LIKE"
	ReactionDislike Reaction = "DISLIKE"
)

// ParseReaction maps a server reaction string to a Reaction.
func ParseReaction(s string) (Reaction, bool) {
	switch Reaction(s) {
	case ReactionNone, ReactionLike, ReactionDislike:
		return Reaction(s), true
	}
	return ReactionNone, false
}

// Author identifies who wrote a feed item or quoted content.
type Author struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatar_url"`
}

// Counts holds the engagement counters of a feed item.
type Counts struct {
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Quotes   int64 `json:"quotes"`
}

// ViewerState is what the current viewer has done to a feed item.
type ViewerState struct {
	Reaction   Reaction `json:"reaction"`
	Bookmarked bool     `json:"bookmarked"`
	Reposted   bool     `json:"reposted"`
}

// PostContent is the body of a free-form post.
type PostContent struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
}

// ReviewContent is the body of a product review.
type ReviewContent struct {
	Vendor string         `json:"vendor"`
	Title  string         `json:"title"`
	Rating float64        `json:"rating"`
	Text   string         `json:"text"`
	Images []string       `json:"images"`
	Quote  *QuotedContent `json:"quote,omitempty"`
}

// QuotedContent is a post or review embedded inside a review. It has no
// quote of its own.
type QuotedContent struct {
	Kind   Kind     `json:"kind"`
	Author Author   `json:"author"`
	Text   string   `json:"text"`
	Images []string `json:"images"`
	Vendor string   `json:"vendor,omitempty"`
	Title  string   `json:"title,omitempty"`
	Rating float64  `json:"rating,omitempty"`
}

// FeedItem is the canonical representation of a post or review.
// Exactly one of Post and Review is set, matching Kind.
type FeedItem struct {
	ID        int64          `json:"id"`
	Kind      Kind           `json:"kind"`
	Author    Author         `json:"author"`
	Counts    Counts         `json:"counts"`
	Viewer    ViewerState    `json:"viewer"`
	IsMine    bool           `json:"is_mine"`
	CreatedAt time.Time      `json:"created_at"`
	Post      *PostContent   `json:"post,omitempty"`
	Review    *ReviewContent `json:"review,omitempty"`
}

// Text returns the body text of whichever variant the item carries.
func (it FeedItem) Text() string {
	switch {
	case it.Post != nil:
		return it.Post.Text
	case it.Review != nil:
		return it.Review.Text
	}
	return ""
}

// Images returns the image URLs of whichever variant the item carries.
func (it FeedItem) Images() []string {
	switch {
	case it.Post != nil:
		return it.Post.Images
	case it.Review != nil:
		return it.Review.Images
	}
	return nil
}

// Clone returns a deep copy so callers can never alias the owner's slices.
func (it FeedItem) Clone() FeedItem {
	out := it
	if it.Post != nil {
		p := *it.Post
		p.Images = cloneStrings(p.Images)
		out.Post = &p
	}
	if it.Review != nil {
		r := *it.Review
		r.Images = cloneStrings(r.Images)
		if r.Quote != nil {
			q := *r.Quote
			q.Images = cloneStrings(q.Images)
			r.Quote = &q
		}
		out.Review = &r
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

// ReactionState is the authoritative reaction state the server reports after
// a reaction request.
type ReactionState struct {
	Reaction Reaction `json:"reaction"`
	Likes    int64    `json:"likes"`
	Dislikes int64    `json:"dislikes"`
}

// FeedOptions configures which items a snapshot returns.
type FeedOptions struct {
	Limit int
	Kinds []Kind
}
