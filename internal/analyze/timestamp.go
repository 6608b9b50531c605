package analyze

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp converts "M:SS" or "H:MM:SS" to seconds.
// Any other shape, or a part that is not an integer, yields 0.
func ParseTimestamp(ts string) float64 {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		values[i] = v
	}

	if len(values) == 2 {
		return float64(values[0]*60 + values[1])
	}
	return float64(values[0]*3600 + values[1]*60 + values[2])
}

// FormatTimestamp renders seconds as M:SS, or H:MM:SS from one hour on
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
