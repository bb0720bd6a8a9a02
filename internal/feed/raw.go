package feed

// Wire shapes of the /community/feeds records. Optional members are pointers
// (or nil slices) so absence survives decoding and is resolved once by the
// Normalizer.

// RawFeed is one feed record as the server sends it.
type RawFeed struct {
	FeedID      int64       `json:"feedId"`
	Kind        string      `json:"kind"`
	ContentType string      `json:"contentType"`
	User        RawUser     `json:"user"`
	Contents    RawContents `json:"contents"`
	Counts      RawCounts   `json:"counts"`
	MyState     *RawMyState `json:"myState"`
	Mine        *bool       `json:"mine"`
	CreatedAt   string      `json:"createdAt"`
}

// RawUser is the author block of a record or of a quote.
type RawUser struct {
	Name            string  `json:"name"`
	UserID          string  `json:"userId"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// RawContents is the content block; which members are filled depends on the
// record's contentType and kind.
type RawContents struct {
	Text   *string    `json:"text"`
	Images []RawImage `json:"images"`
	Review *RawReview `json:"review"`
	Quote  *RawQuote  `json:"quote"`
}

type RawImage struct {
	ImageURL string `json:"imageUrl"`
}

type RawReview struct {
	Vendor *string  `json:"vendor"`
	Title  *string  `json:"title"`
	Rating *float64 `json:"rating"`
}

// RawQuote is the quoted payload of a QUOTE record.
type RawQuote struct {
	ContentType string     `json:"contentType"`
	Text        *string    `json:"text"`
	User        RawUser    `json:"user"`
	Images      []RawImage `json:"images"`
	Vendor      *string    `json:"vendor"`
	Title       *string    `json:"title"`
	Rating      *float64   `json:"rating"`
}

type RawCounts struct {
	CommentCount int64 `json:"commentCount"`
	LikeCount    int64 `json:"likeCount"`
	DislikeCount int64 `json:"dislikeCount"`
	QuoteCount   int64 `json:"quoteCount"`
}

type RawMyState struct {
	ReactionType string `json:"reactionType"`
	Bookmarked   bool   `json:"bookmarked"`
	Reposted     bool   `json:"reposted"`
}

// Record kinds.
const (
	RawKindOriginal = "ORIGINAL"
	RawKindQuote    = "QUOTE"
	RawKindRepost   = "REPOST"
)
