package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// renders elapsed seconds as HH:MM:SS.mmm
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	// work in whole milliseconds so rounding carries into the larger units
	ms := int64(math.Round(seconds * 1000))
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	secs := float64(ms) / 1000

	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// parses HH:MM:SS.mmm (or MM:SS.mmm, SS.mmm) back into seconds
func Parse(tc string) (float64, error) {
	tc = strings.TrimSpace(tc)
	if tc == "" {
		return 0, fmt.Errorf("empty timecode")
	}

	parts := strings.Split(tc, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timecode %q", tc)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		if last {
			secs, err := strconv.ParseFloat(part, 64)
			if err != nil || secs < 0 {
				return 0, fmt.Errorf("invalid seconds in timecode %q", tc)
			}
			if len(parts) > 1 && secs >= 60 {
				return 0, fmt.Errorf("seconds out of range in timecode %q", tc)
			}
			total = total*60 + secs
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid field %q in timecode %q", part, tc)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("minutes out of range in timecode %q", tc)
		}
		total = total*60 + float64(n)
	}

	return total, nil
}
