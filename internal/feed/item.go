// Package feed implements tubetop's aggregation pipeline: fetching each
// registered channel's uploads, merging them into a single cached list, and
// computing the filtered, sorted, channel-fair view the dashboard renders.
package feed

import (
	"math"
	"time"
)

// MinDurationSeconds is the floor below which videos are discarded before
// entering the cache. Shorts and clips at or under 3 minutes never qualify.
const MinDurationSeconds = 180

// Rating decay constants. A video's score is its view count discounted by
// age, so a fresh video with modest views can outrank an old juggernaut:
//
//	rating = views / (hoursSincePublish + 10)^0.8
//
// Hours are floored at 0.1 so just-published videos don't blow up the
// denominator.
const (
	decayOffsetHours = 10.0
	decayExponent    = 0.8
	minAgeHours      = 0.1
)

// Video is a unit of aggregated content. The cache persists these wholesale;
// nothing is ever patched in place except the rating recomputation pass.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	PublishedAt     time.Time `json:"published_at"`
	Views           int64     `json:"views"`
	ChannelID       string    `json:"channel_id"`
	ChannelTitle    string    `json:"channel_title"`
	DurationSeconds int       `json:"duration_seconds"`
	Rating          float64   `json:"rating"`
}

// Rate computes the time-decayed popularity score for a video published at
// the given instant, as observed at now.
func Rate(views int64, publishedAt, now time.Time) float64 {
	hours := now.Sub(publishedAt).Hours()
	if hours < minAgeHours {
		hours = minAgeHours
	}
	return float64(views) / math.Pow(hours+decayOffsetHours, decayExponent)
}

// Rerate recomputes every video's rating in place against now.
// Run whenever the cache is refreshed so scores track video age.
func Rerate(videos []Video, now time.Time) {
	for i := range videos {
		videos[i].Rating = Rate(videos[i].Views, videos[i].PublishedAt, now)
	}
}

// SortProperty selects what per-channel groups are ordered by.
type SortProperty string

const (
	SortRating    SortProperty = "rating"
	SortViews     SortProperty = "views"
	SortPublished SortProperty = "published"
	SortTitle     SortProperty = "title"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// DurationFilter buckets videos by length.
type DurationFilter string

const (
	AllDurations DurationFilter = "all"
	Short        DurationFilter = "short"  // under 10 minutes
	Medium       DurationFilter = "medium" // 10 to 30 minutes inclusive
	Long         DurationFilter = "long"   // over 30 minutes
)

// Matches reports whether a video of the given length falls in the bucket.
// Boundary policy: 600s is medium, not short; 1800s is medium, not long.
func (f DurationFilter) Matches(seconds int) bool {
	switch f {
	case Short:
		return seconds < 600
	case Medium:
		return seconds >= 600 && seconds <= 1800
	case Long:
		return seconds > 1800
	default:
		return true
	}
}

// LaterFilter restricts the view by saved-for-later membership.
type LaterFilter string

const (
	LaterAll     LaterFilter = "all"
	LaterOnly    LaterFilter = "only"
	LaterExclude LaterFilter = "exclude"
)
