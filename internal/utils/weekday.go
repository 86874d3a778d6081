package utils

import (
	"fmt"
	"strings"
	"time"
)

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WeekdayKey returns the three-letter lowercase key used in OPEN_DAYS.
func WeekdayKey(d time.Weekday) string {
	return weekdayKeys[d]
}

// ParseOpenDays parses a comma separated list like "tue,wed,thu".
// Entries are trimmed and case-insensitive; empty entries are skipped.
func ParseOpenDays(s string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		found := false
		for i, k := range weekdayKeys {
			if k == key {
				days[time.Weekday(i)] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
	}
	return days, nil
}
