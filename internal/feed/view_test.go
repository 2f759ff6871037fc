package feed

import (
	"math/rand"
	"testing"
	"time"

	"tubetop/internal/channels"
)

func reg(ids ...string) []channels.Channel {
	out := make([]channels.Channel, len(ids))
	for i, id := range ids {
		out[i] = channels.Channel{ID: id, Title: id}
	}
	return out
}

func vid(id, channelID string) Video {
	return Video{ID: id, Title: id, ChannelID: channelID, DurationSeconds: 300}
}

func ids(videos []Video) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestDedupFirstOccurrenceWins(t *testing.T) {
	videos := []Video{
		{ID: "x", ChannelID: "A", Views: 1},
		{ID: "y", ChannelID: "A"},
		{ID: "x", ChannelID: "B", Views: 2},
	}

	out := Dedup(videos)
	if len(out) != 2 {
		t.Fatalf("expected 2 videos after dedup, got %d", len(out))
	}
	if out[0].ChannelID != "A" {
		t.Errorf("first occurrence should win, got channel %s", out[0].ChannelID)
	}
}

func TestFairInterleave(t *testing.T) {
	cache := []Video{
		vid("a1", "A"), vid("a2", "A"), vid("a3", "A"), vid("a4", "A"), vid("a5", "A"),
		vid("b1", "B"),
	}

	out, _ := ComputeView(cache, reg("A", "B"), ViewOptions{Sort: SortTitle, Direction: Ascending})
	got := ids(out)

	if got[0][0] != 'a' || got[1][0] != 'b' {
		t.Errorf("first round should take one video from each channel in registry order, got %v", got[:2])
	}
	for i := 2; i < len(got); i++ {
		if got[i][0] != 'a' {
			t.Errorf("position %d: expected channel A video after B exhausted, got %s", i, got[i])
		}
	}
	if len(got) != 6 {
		t.Errorf("expected all 6 videos, got %d", len(got))
	}
}

func TestReorderChangesInterleaveNotMembership(t *testing.T) {
	cache := []Video{vid("a1", "A"), vid("b1", "B")}

	ab, _ := ComputeView(cache, reg("A", "B"), ViewOptions{})
	ba, _ := ComputeView(cache, reg("B", "A"), ViewOptions{})

	if ab[0].ID != "a1" || ba[0].ID != "b1" {
		t.Errorf("interleave head should follow registry order: [A,B] gave %s, [B,A] gave %s", ab[0].ID, ba[0].ID)
	}
	if len(ab) != len(ba) {
		t.Errorf("reordering the registry must not change membership: %d vs %d", len(ab), len(ba))
	}
}

func TestSortByViewsBothDirections(t *testing.T) {
	cache := []Video{
		{ID: "v10", ChannelID: "A", Views: 10, DurationSeconds: 300},
		{ID: "v50", ChannelID: "A", Views: 50, DurationSeconds: 300},
		{ID: "v30", ChannelID: "A", Views: 30, DurationSeconds: 300},
	}

	desc, _ := ComputeView(cache, reg("A"), ViewOptions{Sort: SortViews, Direction: Descending})
	if got := ids(desc); got[0] != "v50" || got[1] != "v30" || got[2] != "v10" {
		t.Errorf("descending views: expected [v50 v30 v10], got %v", got)
	}

	asc, _ := ComputeView(cache, reg("A"), ViewOptions{Sort: SortViews, Direction: Ascending})
	if got := ids(asc); got[0] != "v10" || got[1] != "v30" || got[2] != "v50" {
		t.Errorf("ascending views: expected [v10 v30 v50], got %v", got)
	}
}

func TestSortByPublished(t *testing.T) {
	now := time.Now()
	cache := []Video{
		{ID: "old", ChannelID: "A", PublishedAt: now.Add(-48 * time.Hour), DurationSeconds: 300},
		{ID: "new", ChannelID: "A", PublishedAt: now, DurationSeconds: 300},
		{ID: "mid", ChannelID: "A", PublishedAt: now.Add(-24 * time.Hour), DurationSeconds: 300},
	}

	out, _ := ComputeView(cache, reg("A"), ViewOptions{Sort: SortPublished, Direction: Descending})
	if got := ids(out); got[0] != "new" || got[1] != "mid" || got[2] != "old" {
		t.Errorf("expected newest first, got %v", got)
	}
}

func TestDurationBucketBoundaries(t *testing.T) {
	cases := []struct {
		seconds int
		filter  DurationFilter
		want    bool
	}{
		{599, Short, true},
		{600, Short, false},
		{600, Medium, true},
		{1800, Medium, true},
		{1800, Long, false},
		{1801, Long, true},
		{1801, Medium, false},
		{300, AllDurations, true},
	}

	for _, tc := range cases {
		if got := tc.filter.Matches(tc.seconds); got != tc.want {
			t.Errorf("%s.Matches(%d) = %v, want %v", tc.filter, tc.seconds, got, tc.want)
		}
	}
}

func TestDurationFilterApplied(t *testing.T) {
	cache := []Video{
		{ID: "short", ChannelID: "A", DurationSeconds: 400},
		{ID: "medium", ChannelID: "A", DurationSeconds: 900},
		{ID: "long", ChannelID: "A", DurationSeconds: 3600},
	}

	out, stats := ComputeView(cache, reg("A"), ViewOptions{Duration: Medium})
	if len(out) != 1 || out[0].ID != "medium" {
		t.Errorf("medium filter: expected [medium], got %v", ids(out))
	}
	if stats.Shown != 1 {
		t.Errorf("stats.Shown = %d, want 1", stats.Shown)
	}
}

func TestWatchedExcluded(t *testing.T) {
	cache := []Video{vid("w", "A"), vid("u", "A")}
	watched := map[string]bool{"w": true}

	out, _ := ComputeView(cache, reg("A"), ViewOptions{
		IsWatched: func(id string) bool { return watched[id] },
	})

	for _, v := range out {
		if v.ID == "w" {
			t.Error("watched video must never appear in the view")
		}
	}
	if len(out) != 1 {
		t.Errorf("expected 1 video, got %d", len(out))
	}
}

func TestHiddenOnlyAppliesWhenNarrow(t *testing.T) {
	cache := []Video{vid("h", "A"), vid("u", "A")}
	hidden := func(id string) bool { return id == "h" }

	wide, _ := ComputeView(cache, reg("A"), ViewOptions{Narrow: false, IsHidden: hidden})
	if len(wide) != 2 {
		t.Errorf("hidden set must not apply in the wide layout: got %d videos", len(wide))
	}

	narrow, _ := ComputeView(cache, reg("A"), ViewOptions{Narrow: true, IsHidden: hidden})
	if len(narrow) != 1 || narrow[0].ID != "u" {
		t.Errorf("hidden set must apply in the narrow layout: got %v", ids(narrow))
	}
}

func TestRemovedChannelDroppedWithoutRefetch(t *testing.T) {
	cache := []Video{vid("a1", "A"), vid("b1", "B")}

	out, _ := ComputeView(cache, reg("A"), ViewOptions{})
	if len(out) != 1 || out[0].ID != "a1" {
		t.Errorf("videos from unregistered channels must drop out, got %v", ids(out))
	}
}

func TestLaterFilter(t *testing.T) {
	cache := []Video{vid("s", "A"), vid("n", "A")}
	saved := func(id string) bool { return id == "s" }

	only, _ := ComputeView(cache, reg("A"), ViewOptions{Later: LaterOnly, IsLater: saved})
	if len(only) != 1 || only[0].ID != "s" {
		t.Errorf("LaterOnly: expected [s], got %v", ids(only))
	}

	excl, _ := ComputeView(cache, reg("A"), ViewOptions{Later: LaterExclude, IsLater: saved})
	if len(excl) != 1 || excl[0].ID != "n" {
		t.Errorf("LaterExclude: expected [n], got %v", ids(excl))
	}

	all, _ := ComputeView(cache, reg("A"), ViewOptions{Later: LaterAll, IsLater: saved})
	if len(all) != 2 {
		t.Errorf("LaterAll: expected both videos, got %v", ids(all))
	}
}

func TestRefilterIdempotentWithoutShuffle(t *testing.T) {
	cache := []Video{
		vid("a1", "A"), vid("a2", "A"),
		vid("b1", "B"), vid("b2", "B"),
		vid("c1", "C"),
	}
	opts := ViewOptions{Sort: SortTitle, Direction: Ascending}

	first, _ := ComputeView(cache, reg("A", "B", "C"), opts)
	second, _ := ComputeView(cache, reg("A", "B", "C"), opts)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestShufflePreservesMembershipAndRoundFairness(t *testing.T) {
	cache := []Video{
		vid("a1", "A"), vid("a2", "A"), vid("a3", "A"),
		vid("b1", "B"), vid("b2", "B"), vid("b3", "B"),
		vid("c1", "C"), vid("c2", "C"), vid("c3", "C"),
	}
	opts := ViewOptions{
		Sort:      SortTitle,
		Direction: Ascending,
		Shuffle:   true,
		Rand:      rand.New(rand.NewSource(42)),
	}

	out, _ := ComputeView(cache, reg("A", "B", "C"), opts)

	if len(out) != 9 {
		t.Fatalf("shuffle must not add or drop videos: got %d", len(out))
	}
	seen := make(map[string]int)
	for _, v := range out {
		seen[v.ID]++
	}
	for _, v := range cache {
		if seen[v.ID] != 1 {
			t.Errorf("video %s appears %d times, want exactly once", v.ID, seen[v.ID])
		}
	}

	// Every interleave round is a full pass: each batch of 3 must contain
	// exactly one video per channel regardless of the shuffle.
	for round := 0; round < 3; round++ {
		batch := out[round*3 : round*3+3]
		chs := make(map[string]bool)
		for _, v := range batch {
			chs[v.ChannelID] = true
		}
		if len(chs) != 3 {
			t.Errorf("round %d mixes batches: %v", round, ids(batch))
		}
	}
}

func TestStatsAverageRating(t *testing.T) {
	cache := []Video{
		{ID: "a", ChannelID: "A", Rating: 10, DurationSeconds: 300},
		{ID: "b", ChannelID: "A", Rating: 30, DurationSeconds: 300},
	}

	_, stats := ComputeView(cache, reg("A"), ViewOptions{})
	if stats.Shown != 2 {
		t.Errorf("Shown = %d, want 2", stats.Shown)
	}
	if stats.AverageRating != 20 {
		t.Errorf("AverageRating = %v, want 20", stats.AverageRating)
	}
}

func TestEmptyRegistryEmptyView(t *testing.T) {
	cache := []Video{vid("a1", "A")}
	out, stats := ComputeView(cache, nil, ViewOptions{})
	if len(out) != 0 || stats.Shown != 0 {
		t.Errorf("empty registry must give an empty view, got %v", ids(out))
	}
}
