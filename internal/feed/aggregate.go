package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tubetop/internal/channels"
	"tubetop/internal/logging"
	"tubetop/internal/store"
	"tubetop/internal/youtube"
)

// maxPerChannel bounds how many uploads are pulled per channel per refresh.
const maxPerChannel = 20

// channelFetchTimeout caps each channel's request chain.
const channelFetchTimeout = 30 * time.Second

// ErrRefreshInFlight is returned when a refresh is requested while another is
// still running. At most one refresh runs at a time; the loser is a no-op.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// Client is the slice of the YouTube client the aggregator needs.
type Client interface {
	PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error)
	VideoDetails(ctx context.Context, videoIDs []string) ([]youtube.Video, error)
}

// ChannelError labels a fetch failure with the channel it belongs to.
type ChannelError struct {
	Channel string
	Err     error
}

func (e ChannelError) Error() string {
	return fmt.Sprintf("could not load videos for %s: %v", e.Channel, e.Err)
}

func (e ChannelError) Unwrap() error { return e.Err }

// Result is the outcome of one refresh.
type Result struct {
	Videos []Video        // the new cache contents
	Errors []ChannelError // per-channel failures, in registry order
}

// ErrorBanner renders the per-channel failures as a multi-line message, one
// line per failing channel. Empty when every channel succeeded.
func (r *Result) ErrorBanner() string {
	lines := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// Aggregator runs the fetch stage: one concurrent request chain per channel,
// all settled before merging. The merged, deduplicated, duration-floored list
// replaces the cache wholesale.
type Aggregator struct {
	client   Client
	store    *store.Store
	inFlight atomic.Bool
}

// NewAggregator creates an Aggregator backed by the given client and store.
func NewAggregator(client Client, s *store.Store) *Aggregator {
	return &Aggregator{client: client, store: s}
}

// Refresh fetches every registered channel's recent uploads and replaces the
// cache. Per-channel failures are isolated: a channel that errors contributes
// nothing but does not abort the others, and its failure is labeled in the
// result. When every channel fails the existing cache is left untouched.
//
// A second Refresh while one is running returns ErrRefreshInFlight.
func (a *Aggregator) Refresh(ctx context.Context, registry []channels.Channel) (*Result, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRefreshInFlight
	}
	defer a.inFlight.Store(false)

	if len(registry) == 0 {
		if err := a.store.Set(store.KeyVideoCache, []Video{}); err != nil {
			return nil, err
		}
		return &Result{}, nil
	}

	perChannel := make([][]Video, len(registry))
	errs := make([]error, len(registry))

	var g errgroup.Group
	for i, ch := range registry {
		g.Go(func() error {
			videos, err := a.fetchChannel(ctx, ch)
			perChannel[i] = videos
			errs[i] = err
			return nil // failures are reported per channel, never fail the group
		})
	}
	g.Wait()

	result := &Result{}
	merged := make([]Video, 0, len(registry)*maxPerChannel)
	failed := 0
	for i, ch := range registry {
		if errs[i] != nil {
			failed++
			result.Errors = append(result.Errors, ChannelError{Channel: ch.Title, Err: errs[i]})
			logging.Warn("channel fetch failed", "channel", ch.Title, "error", errs[i])
			continue
		}
		merged = append(merged, perChannel[i]...)
	}

	if failed == len(registry) {
		// Total failure: keep the stale cache, surface the aggregate error.
		return result, fmt.Errorf("all %d channels failed to load", failed)
	}

	merged = Dedup(merged)
	merged = keep(merged, func(v Video) bool { return v.DurationSeconds > MinDurationSeconds })
	Rerate(merged, nowFunc())

	if err := a.store.Set(store.KeyVideoCache, merged); err != nil {
		return nil, fmt.Errorf("persist cache: %w", err)
	}

	result.Videos = merged
	logging.Info("cache refreshed", "videos", len(merged), "channels", len(registry), "failed", failed)
	return result, nil
}

// fetchChannel runs one channel's request chain: list the uploads playlist,
// bulk-fetch details, normalize, and drop anything at or under the duration
// floor.
func (a *Aggregator) fetchChannel(ctx context.Context, ch channels.Channel) ([]Video, error) {
	ctx, cancel := context.WithTimeout(ctx, channelFetchTimeout)
	defer cancel()

	if ch.UploadsPlaylistID == "" {
		return nil, fmt.Errorf("no uploads playlist recorded")
	}

	ids, err := a.client.PlaylistVideoIDs(ctx, ch.UploadsPlaylistID, maxPerChannel)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	details, err := a.client.VideoDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := nowFunc()
	videos := make([]Video, 0, len(details))
	for _, d := range details {
		if d.DurationSeconds <= MinDurationSeconds {
			continue
		}
		videos = append(videos, Video{
			ID:              d.ID,
			Title:           d.Title,
			URL:             d.URL(),
			ThumbnailURL:    d.ThumbnailURL,
			PublishedAt:     d.PublishedAt,
			Views:           d.ViewCount,
			ChannelID:       d.ChannelID,
			ChannelTitle:    d.ChannelTitle,
			DurationSeconds: d.DurationSeconds,
			Rating:          Rate(d.ViewCount, d.PublishedAt, now),
		})
	}
	return videos, nil
}

// LoadCache reads the persisted video cache. A never-written cache is empty.
func LoadCache(s *store.Store) ([]Video, error) {
	var videos []Video
	if _, err := s.Get(store.KeyVideoCache, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// ClearCache empties the persisted video cache.
func ClearCache(s *store.Store) error {
	return s.Set(store.KeyVideoCache, []Video{})
}

// Covered reports whether the cache holds at least one video for every
// registered channel. A registry that grew past the cache's coverage needs a
// re-fetch, or the new channel would silently show zero videos forever.
func Covered(cache []Video, registry []channels.Channel) bool {
	have := make(map[string]bool, len(registry))
	for _, v := range cache {
		have[v.ChannelID] = true
	}
	for _, ch := range registry {
		if !have[ch.ID] {
			return false
		}
	}
	return true
}

// State summarizes the credential/registry/cache triad for one render.
type State int

const (
	// StateIdle: nothing configured, empty feed, no error.
	StateIdle State = iota
	// StateNeedCredential: channels exist but no credential is set.
	StateNeedCredential
	// StateNoChannels: credential set, nothing registered; cache is cleared.
	StateNoChannels
	// StateNeedsFetch: prerequisites met and the cache is empty or does not
	// cover the registry.
	StateNeedsFetch
	// StateReady: serve from cache, no fetch.
	StateReady
)

// Evaluate decides what the pipeline should do given the current triad.
func Evaluate(credential string, registry []channels.Channel, cache []Video) State {
	hasCred := credential != ""
	hasChannels := len(registry) > 0

	switch {
	case !hasCred && !hasChannels:
		return StateIdle
	case !hasCred:
		return StateNeedCredential
	case !hasChannels:
		return StateNoChannels
	case len(cache) == 0 || !Covered(cache, registry):
		return StateNeedsFetch
	default:
		return StateReady
	}
}
