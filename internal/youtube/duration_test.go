package youtube

import "testing"

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"PT3M", 180},
		{"PT3M1S", 181},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT10M30S", 630},
		{"PT0S", 0},
		{"P1DT2H", 0}, // day components are not uploads-playlist material
		{"", 0},
		{"3M1S", 0},
		{"garbage", 0},
	}

	for _, tc := range cases {
		if got := ParseDuration(tc.in); got != tc.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
