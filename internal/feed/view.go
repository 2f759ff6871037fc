package feed

import (
	"math/rand"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tubetop/internal/channels"
)

// ViewOptions controls the synchronous view-computation stage. Every field is
// an independent axis; the zero value means "no restriction, default sort".
type ViewOptions struct {
	Sort      SortProperty
	Direction SortDirection
	Duration  DurationFilter
	Later     LaterFilter

	// Narrow marks a narrow viewing context (small terminal). The hidden
	// set only excludes videos when Narrow is true.
	Narrow bool

	// Shuffle permutes each interleave round's batch. Channel fairness is
	// preserved: videos never move across round boundaries.
	Shuffle bool
	// Rand drives the shuffle; nil falls back to the global source.
	Rand *rand.Rand

	// Membership predicates for the three persisted id sets. Nil means
	// "empty set".
	IsWatched func(id string) bool
	IsHidden  func(id string) bool
	IsLater   func(id string) bool
}

// Stats are the display statistics derived from a computed view.
type Stats struct {
	Shown         int
	AverageRating float64
}

// ComputeView turns the cached video list into the ordered, filtered feed.
// It is pure apart from the optional shuffle: it never touches the network
// and never mutates the cache. Output order is the interleave order; no
// global sort pass is applied afterwards, so channel fairness survives into
// the rendered feed.
func ComputeView(cache []Video, registry []channels.Channel, opts ViewOptions) ([]Video, Stats) {
	if opts.Sort == "" {
		opts.Sort = SortRating
	}
	if opts.Direction == "" {
		opts.Direction = Descending
	}

	videos := make([]Video, 0, len(cache))
	for _, v := range cache {
		if opts.IsWatched != nil && opts.IsWatched(v.ID) {
			continue
		}
		if opts.Narrow && opts.IsHidden != nil && opts.IsHidden(v.ID) {
			continue
		}
		videos = append(videos, v)
	}

	// Channels removed after the cache was built drop out here without a
	// re-fetch.
	order := make([]string, 0, len(registry))
	member := make(map[string]bool, len(registry))
	for _, ch := range registry {
		order = append(order, ch.ID)
		member[ch.ID] = true
	}

	groups := make(map[string][]Video)
	for _, v := range videos {
		if !member[v.ChannelID] {
			continue
		}
		groups[v.ChannelID] = append(groups[v.ChannelID], v)
	}

	for _, group := range groups {
		sortVideos(group, opts.Sort, opts.Direction)
	}

	out := interleave(groups, order, opts)

	if opts.Duration != "" && opts.Duration != AllDurations {
		out = keep(out, func(v Video) bool { return opts.Duration.Matches(v.DurationSeconds) })
	}

	switch opts.Later {
	case LaterOnly:
		out = keep(out, func(v Video) bool { return opts.IsLater != nil && opts.IsLater(v.ID) })
	case LaterExclude:
		out = keep(out, func(v Video) bool { return opts.IsLater == nil || !opts.IsLater(v.ID) })
	}

	return out, computeStats(out)
}

// interleave merges the per-channel groups round-robin in registry order:
// one video per channel per pass until every channel is exhausted. When
// shuffling is on, each pass's batch is permuted before being appended, so
// no video ever crosses a pass boundary.
func interleave(groups map[string][]Video, order []string, opts ViewOptions) []Video {
	total := 0
	for _, g := range groups {
		total += len(g)
	}

	out := make([]Video, 0, total)
	idx := make(map[string]int, len(order))

	for len(out) < total {
		batch := make([]Video, 0, len(order))
		for _, channelID := range order {
			group := groups[channelID]
			if i := idx[channelID]; i < len(group) {
				batch = append(batch, group[i])
				idx[channelID] = i + 1
			}
		}
		if len(batch) == 0 {
			break
		}
		if opts.Shuffle {
			shuffleBatch(batch, opts.Rand)
		}
		out = append(out, batch...)
	}

	return out
}

// shuffleBatch applies a Fisher-Yates shuffle in place.
func shuffleBatch(batch []Video, r *rand.Rand) {
	swap := func(i, j int) { batch[i], batch[j] = batch[j], batch[i] }
	if r != nil {
		r.Shuffle(len(batch), swap)
	} else {
		rand.Shuffle(len(batch), swap)
	}
}

// sortVideos orders a single channel's group by the active sort property.
// Numeric properties compare numerically, published compares as instants,
// and titles compare with locale-aware collation.
func sortVideos(group []Video, prop SortProperty, dir SortDirection) {
	var less func(a, b Video) bool

	switch prop {
	case SortViews:
		less = func(a, b Video) bool { return a.Views < b.Views }
	case SortPublished:
		less = func(a, b Video) bool { return a.PublishedAt.Before(b.PublishedAt) }
	case SortTitle:
		coll := collate.New(language.Und, collate.IgnoreCase)
		less = func(a, b Video) bool { return coll.CompareString(a.Title, b.Title) < 0 }
	default:
		less = func(a, b Video) bool { return a.Rating < b.Rating }
	}

	sort.SliceStable(group, func(i, j int) bool {
		if dir == Ascending {
			return less(group[i], group[j])
		}
		return less(group[j], group[i])
	})
}

func keep(videos []Video, pred func(Video) bool) []Video {
	out := videos[:0:0]
	for _, v := range videos {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func computeStats(videos []Video) Stats {
	stats := Stats{Shown: len(videos)}
	if len(videos) == 0 {
		return stats
	}
	var sum float64
	for _, v := range videos {
		sum += v.Rating
	}
	stats.AverageRating = sum / float64(len(videos))
	return stats
}

// Dedup removes duplicate video ids, keeping the first occurrence.
func Dedup(videos []Video) []Video {
	seen := make(map[string]struct{}, len(videos))
	out := videos[:0:0]
	for _, v := range videos {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}

// nowFunc is swapped in tests to pin rating computation.
var nowFunc = time.Now
