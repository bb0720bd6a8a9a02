package chozy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chozy/feedsync/internal/feed"
	"github.com/chozy/feedsync/pkg/credential"
)

const (
	defaultBaseURL = "https://chozy.net"
	defaultTimeout = 30 * time.Second

	requestIDHeader = "X-Request-Id"
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCredentials sets where the viewer's access token comes from.
func WithCredentials(src credential.Source) ClientOption {
	return func(c *Client) {
		c.creds = src
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger routes request tracing and resty's own diagnostics to logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a Chozy community API client.
type Client struct {
	rest       *resty.Client
	baseURL    string
	httpClient *http.Client
	creds      credential.Source
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a new Chozy API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.rest = resty.NewWithClient(c.httpClient)
	} else {
		c.rest = resty.New()
	}
	c.rest.SetBaseURL(c.baseURL)
	c.rest.SetTimeout(c.timeout)
	c.rest.SetHeader("Accept", "application/json")
	c.rest.SetLogger(c.logger.Sugar())
	c.rest.OnBeforeRequest(c.decorate)
	c.rest.OnAfterResponse(c.trace)

	return c
}

// decorate stamps every request with a request id and, when the viewer is
// signed in, the Authorization header.
func (c *Client) decorate(_ *resty.Client, r *resty.Request) error {
	r.SetHeader(requestIDHeader, uuid.NewString())
	if c.creds == nil {
		return nil
	}
	if cred, ok := c.creds.Credential(r.Context()); ok {
		r.SetHeader("Authorization", cred.Header())
	}
	return nil
}

func (c *Client) trace(_ *resty.Client, resp *resty.Response) error {
	c.logger.Debug("Chozy API call",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.String("request_id", resp.Request.Header.Get(requestIDHeader)),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()))
	return nil
}

// FetchFeeds retrieves one page of community feed records.
func (c *Client) FetchFeeds(ctx context.Context, q FeedQuery) (*FeedPage, error) {
	params := map[string]string{}
	if q.Tab != "" {
		params["tab"] = string(q.Tab)
	}
	if q.ContentType != "" {
		params["contentType"] = string(q.ContentType)
	}
	if q.Search != "" {
		params["search"] = q.Search
	}
	if q.Cursor != "" {
		params["cursor"] = q.Cursor
	}
	if q.Size > 0 {
		params["size"] = strconv.Itoa(q.Size)
	}

	result, err := doJSON[feedsResult](ctx, c, http.MethodGet, "/community/feeds", params, nil)
	if err != nil {
		return nil, err
	}

	page := &FeedPage{
		Feeds:   result.Feeds,
		HasNext: result.HasNext,
	}
	if page.Feeds == nil {
		page.Feeds = []feed.RawFeed{}
	}
	if result.NextCursor != nil {
		page.NextCursor = *result.NextCursor
	}
	return page, nil
}

// SubmitReaction sends the viewer's like (true) or dislike (false) intent for
// a feed item and returns the server's resulting reaction state.
func (c *Client) SubmitReaction(ctx context.Context, feedID int64, like bool) (feed.ReactionState, error) {
	path := fmt.Sprintf("/community/feeds/%d/reactions", feedID)

	result, err := doJSON[reactionResult](ctx, c, http.MethodPost, path, nil, reactionRequest{Like: like})
	if err != nil {
		return feed.ReactionState{}, err
	}

	if result.ReactionType == nil || result.LikeCount == nil || result.DislikeCount == nil {
		return feed.ReactionState{}, fmt.Errorf("reaction result for feed %d is incomplete: %w", feedID, ErrMalformedResponse)
	}
	reaction, ok := feed.ParseReaction(*result.ReactionType)
	if !ok {
		return feed.ReactionState{}, fmt.Errorf("unknown reaction %q for feed %d: %w", *result.ReactionType, feedID, ErrMalformedResponse)
	}
	if *result.LikeCount < 0 || *result.DislikeCount < 0 {
		return feed.ReactionState{}, fmt.Errorf("negative counts for feed %d: %w", feedID, ErrMalformedResponse)
	}

	return feed.ReactionState{
		Reaction: reaction,
		Likes:    *result.LikeCount,
		Dislikes: *result.DislikeCount,
	}, nil
}

// SubmitBookmark sets the viewer's bookmark on a feed item and returns the
// server's resulting bookmark flag.
func (c *Client) SubmitBookmark(ctx context.Context, feedID int64, bookmarked bool) (bool, error) {
	path := fmt.Sprintf("/community/feeds/%d/bookmarks", feedID)

	result, err := doJSON[bookmarkResult](ctx, c, http.MethodPost, path, nil, bookmarkRequest{Bookmarked: bookmarked})
	if err != nil {
		return false, err
	}
	if result.Bookmarked == nil {
		return false, fmt.Errorf("bookmark result for feed %d is incomplete: %w", feedID, ErrMalformedResponse)
	}
	return *result.Bookmarked, nil
}

func doJSON[T any](ctx context.Context, c *Client, method, path string, query map[string]string, body any) (*T, error) {
	req := c.rest.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("chozy %s %s: %w", method, path, err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to parse %s response: %v: %w", path, decodeErr, ErrMalformedResponse)
	}
	if !env.ok() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Code: env.Code, Message: env.Message}
	}
	if env.Result == nil {
		return nil, fmt.Errorf("%s response has no result: %w", path, ErrMalformedResponse)
	}

	return env.Result, nil
}
