// Package rss is the legacy, keyless ingestion path: a channel's uploads read
// from its public Atom feed instead of the Data API. Superseded by the API
// pipeline (the feed carries no durations, so its videos can't qualify for
// the cache), but kept working for keyless inspection.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"tubetop/internal/feed"
)

const feedBase = "https://www.youtube.com/feeds/videos.xml?channel_id="

// Source fetches a channel's uploads from its public Atom feed.
type Source struct {
	client *http.Client

	// relayURL, when set, routes the fetch through a tubetop relay server
	// instead of hitting youtube.com directly.
	relayURL string
}

// NewSource creates a Source with the given HTTP timeout.
func NewSource(timeout time.Duration) *Source {
	return &Source{client: &http.Client{Timeout: timeout}}
}

// ViaRelay routes fetches through the relay server at base (e.g.
// "http://localhost:8099").
func (s *Source) ViaRelay(base string) {
	s.relayURL = base
}

// Fetch retrieves the channel's recent uploads. View counts are taken from
// the feed's media extensions when present; durations are not in the feed at
// all and come back as 0.
func (s *Source) Fetch(ctx context.Context, channelID string) ([]feed.Video, error) {
	target := feedBase + url.QueryEscape(channelID)
	if s.relayURL != "" {
		target = s.relayURL + "/fetch?url=" + url.QueryEscape(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "tubetop/1.0 (terminal video dashboard)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now()
	videos := make([]feed.Video, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		videos = append(videos, feed.Video{
			ID:           videoID(item),
			Title:        item.Title,
			URL:          item.Link,
			ThumbnailURL: thumbnail(item),
			PublishedAt:  published,
			ChannelID:    channelID,
			ChannelTitle: parsed.Title,
		})
	}
	return videos, nil
}

// videoID extracts the video id from the Atom entry. YouTube entry ids look
// like "yt:video:dQw4w9WgXcQ"; fall back to the full id when the prefix is
// missing.
func videoID(item *gofeed.Item) string {
	const prefix = "yt:video:"
	if len(item.GUID) > len(prefix) && item.GUID[:len(prefix)] == prefix {
		return item.GUID[len(prefix):]
	}
	return item.GUID
}

// thumbnail pulls the media:group thumbnail when the feed carries one.
func thumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, group := range media["group"] {
			for _, thumb := range group.Children["thumbnail"] {
				if u := thumb.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	return ""
}
