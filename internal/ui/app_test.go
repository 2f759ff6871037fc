package ui

import "testing"

func TestFormatViews(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 views"},
		{999, "999 views"},
		{1_000, "1.0K views"},
		{15_400, "15.4K views"},
		{2_300_000, "2.3M views"},
	}
	for _, tc := range cases {
		if got := formatViews(tc.in); got != tc.want {
			t.Errorf("formatViews(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{181, "3:01"},
		{600, "10:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short, 10) = %q", got)
	}
	if got := truncate("a long video title", 10); got != "a long ..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "" {
		t.Errorf("truncate with max 0 = %q", got)
	}
	if got := truncate("ünïcödé titles", 8); len([]rune(got)) != 8 {
		t.Errorf("truncate must count runes, got %q", got)
	}
}

func TestOpenURLRejectsBadSchemes(t *testing.T) {
	if err := openURL("javascript:alert(1)"); err == nil {
		t.Error("non-http scheme should be rejected")
	}
	if err := openURL("ftp://example.com"); err == nil {
		t.Error("ftp scheme should be rejected")
	}
}
