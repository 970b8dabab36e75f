package deployment

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^\s*(\d+)m\s+(\d+)s\s*$`)

// ParseDuration parses the "{m}m {s}s" form used by records, e.g. "4m 22s".
func ParseDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q: expected format \"{m}m {s}s\"", s)
	}

	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in duration %q: %w", s, err)
	}
	seconds, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in duration %q: %w", s, err)
	}

	return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// FormatDuration renders d in the "{m}m {s}s" form, truncating sub-second parts.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
