package youtube

import (
	"regexp"
	"strconv"
)

var durationRe = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration converts an ISO-8601 video duration ("PT1H2M3S") to total
// seconds. Hour, minute and second components are each optional. Anything
// without the "PT" prefix parses to 0.
func ParseDuration(s string) int {
	if len(s) < 2 || s[:2] != "PT" {
		return 0
	}

	total := 0
	for _, m := range durationRe.FindAllStringSubmatch(s[2:], -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2] {
		case "H":
			total += n * 3600
		case "M":
			total += n * 60
		case "S":
			total += n
		}
	}
	return total
}
