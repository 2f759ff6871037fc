// Package youtube provides a client for the YouTube Data API v3.
//
// Authentication is a plain API key passed as a query parameter; there is no
// OAuth flow. The client covers the three calls the aggregation pipeline
// needs: resolving a channel identifier, listing a channel's uploads playlist,
// and bulk-fetching video details.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrChannelNotFound is returned when a channel lookup succeeds at the HTTP
// level but the API has no channel for the identifier.
var ErrChannelNotFound = errors.New("channel not found")

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// Client is a YouTube Data API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter
}

// NewClient creates a client with the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 3),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Channel is the result of resolving a channel identifier.
type Channel struct {
	ID                string
	Title             string
	UploadsPlaylistID string
}

// Video is a fully normalized video record.
type Video struct {
	ID              string
	Title           string
	ChannelID       string
	ChannelTitle    string
	ThumbnailURL    string
	PublishedAt     time.Time
	ViewCount       int64
	DurationSeconds int
}

// URL returns the watch permalink for the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// ResolveChannel looks up a channel by canonical id, legacy username, or
// @handle. Identifiers starting with "UC" and longer than 20 characters are
// treated as canonical ids; everything else goes through forUsername.
// Returns ErrChannelNotFound when the API has no match.
func (c *Client) ResolveChannel(ctx context.Context, identifier string) (*Channel, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(identifier, "@"))
	if cleaned == "" {
		return nil, fmt.Errorf("empty channel identifier")
	}

	q := url.Values{"part": {"snippet,contentDetails"}}
	if strings.HasPrefix(cleaned, "UC") && len(cleaned) > 20 {
		q.Set("id", cleaned)
	} else {
		q.Set("forUsername", cleaned)
	}

	body, err := c.doRequest(ctx, "/channels", q)
	if err != nil {
		return nil, err
	}

	var resp channelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse channels response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%q: %w", identifier, ErrChannelNotFound)
	}

	item := resp.Items[0]
	return &Channel{
		ID:                item.ID,
		Title:             item.Snippet.Title,
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

// PlaylistVideoIDs lists up to max video ids from a playlist, most recent
// first. The aggregation pipeline points this at a channel's uploads playlist.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	q := url.Values{
		"part":       {"contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(max)},
	}

	body, err := c.doRequest(ctx, "/playlistItems", q)
	if err != nil {
		return nil, err
	}

	var resp playlistItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse playlist response: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails.VideoID != "" {
			ids = append(ids, item.ContentDetails.VideoID)
		}
	}
	return ids, nil
}

// VideoDetails bulk-fetches full records for the given video ids and
// normalizes them. Records missing an id or title are skipped rather than
// failing the batch; unparseable view counts become 0.
func (c *Client) VideoDetails(ctx context.Context, videoIDs []string) ([]Video, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	q := url.Values{
		"part": {"snippet,contentDetails,statistics"},
		"id":   {strings.Join(videoIDs, ",")},
	}

	body, err := c.doRequest(ctx, "/videos", q)
	if err != nil {
		return nil, err
	}

	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse videos response: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID == "" || item.Snippet.Title == "" {
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			continue
		}

		views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)

		videos = append(videos, Video{
			ID:              item.ID,
			Title:           item.Snippet.Title,
			ChannelID:       item.Snippet.ChannelID,
			ChannelTitle:    item.Snippet.ChannelTitle,
			ThumbnailURL:    pickThumbnail(item.Snippet.Thumbnails, item.Snippet.Title),
			PublishedAt:     publishedAt,
			ViewCount:       views,
			DurationSeconds: ParseDuration(item.ContentDetails.Duration),
		})
	}

	return videos, nil
}

// pickThumbnail prefers medium, then standard, then a generated placeholder
// that embeds the title.
func pickThumbnail(t thumbnails, title string) string {
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	if t.Standard.URL != "" {
		return t.Standard.URL
	}
	return "https://placehold.co/480x360.png?text=" + url.QueryEscape(title)
}

func (c *Client) doRequest(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp.StatusCode, body)
	}

	return body, nil
}

// handleAPIError maps API failures to user-facing messages. The API embeds a
// reason in the error body; surface it when present.
func (c *Client) handleAPIError(statusCode int, body []byte) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("YouTube API error (status %d): %s", statusCode, apiErr.Error.Message)
	}

	switch statusCode {
	case http.StatusBadRequest, http.StatusForbidden:
		return fmt.Errorf("YouTube API rejected the request (status %d) - check the API key", statusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("YouTube API rate limit exceeded - please try again later")
	default:
		return fmt.Errorf("YouTube API error (status %d)", statusCode)
	}
}

// API response types (private - implementation detail)

type thumbnails struct {
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
	Standard struct {
		URL string `json:"url"`
	} `json:"standard"`
}

type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string     `json:"title"`
			ChannelID    string     `json:"channelId"`
			ChannelTitle string     `json:"channelTitle"`
			PublishedAt  string     `json:"publishedAt"`
			Thumbnails   thumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}
