// Package chozy provides a client for the Chozy community REST API.
//
// This package enables chozy to:
// - Fetch pages of community feed records
// - Submit like/dislike reactions and bookmarks for a feed item
// - Surface transport, status and shape failures as typed errors
package chozy

import "github.com/chozy/feedsync/internal/feed"

// Tab selects which community timeline to read.
type Tab string

const (
	TabRecommend Tab = "RECOMMEND"
	TabFollowing Tab = "FOLLOWING"
)

// ContentFilter restricts a feed page to one content type.
type ContentFilter string

const (
	ContentAll    ContentFilter = "ALL"
	ContentPost   ContentFilter = "POST"
	ContentReview ContentFilter = "REVIEW"
)

// FeedQuery are the parameters of a feed page request. Zero values are omitted.
type FeedQuery struct {
	Tab         Tab
	ContentType ContentFilter
	Search      string
	Cursor      string
	Size        int
}

// FeedPage is one page of raw feed records.
type FeedPage struct {
	Feeds      []feed.RawFeed `json:"feeds"`
	HasNext    bool           `json:"has_next"`
	NextCursor string         `json:"next_cursor"`
}

// API response types (private - implementation detail)

type envelope[T any] struct {
	IsSuccess *bool  `json:"isSuccess"`
	Success   *bool  `json:"success"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Result    *T     `json:"result"`
}

// ok reports the envelope's success flag; the API has used both spellings.
func (e envelope[T]) ok() bool {
	switch {
	case e.IsSuccess != nil:
		return *e.IsSuccess
	case e.Success != nil:
		return *e.Success
	}
	return true
}

type feedsResult struct {
	Feeds      []feed.RawFeed `json:"feeds"`
	HasNext    bool           `json:"hasNext"`
	NextCursor *string        `json:"nextCursor"`
}

type reactionRequest struct {
	Like bool `json:"like"`
}

type reactionResult struct {
	ReactionType *string `json:"reactionType"`
	LikeCount    *int64  `json:"likeCount"`
	DislikeCount *int64  `json:"dislikeCount"`
}

type bookmarkRequest struct {
	Bookmarked bool `json:"bookmarked"`
}

type bookmarkResult struct {
	Bookmarked *bool `json:"bookmarked"`
}
