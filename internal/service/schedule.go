package service

import (
	"strconv"
	"strings"
	"time"
)

// BusinessHours is the admission policy for a reservation time.
// Weekday and time-of-day are evaluated in Location.
type BusinessHours struct {
	OpenDays  map[time.Weekday]bool
	OpenTime  string
	CloseTime string
	Location  *time.Location
}

func (b BusinessHours) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// IsAdmissible reports whether candidate passes every admission rule at now.
func (b BusinessHours) IsAdmissible(candidate, now time.Time) bool {
	return IsFuture(candidate, now) && b.IsOpenDay(candidate) && b.TimeInRange(candidate)
}

// IsFuture is strict: a candidate equal to now is rejected.
func IsFuture(candidate, now time.Time) bool {
	return candidate.After(now)
}

func (b BusinessHours) IsOpenDay(candidate time.Time) bool {
	return b.OpenDays[candidate.In(b.location()).Weekday()]
}

// TimeInRange compares candidate with the open and close times of its own
// calendar day, both bounds inclusive. Bounds that do not parse as HH:MM
// disable the check.
func (b BusinessHours) TimeInRange(candidate time.Time) bool {
	oh, om, okOpen := ParseHHMM(b.OpenTime)
	ch, cm, okClose := ParseHHMM(b.CloseTime)
	if !okOpen || !okClose {
		return true
	}

	loc := b.location()
	d := candidate.In(loc)
	open := time.Date(d.Year(), d.Month(), d.Day(), oh, om, 0, 0, loc)
	closing := time.Date(d.Year(), d.Month(), d.Day(), ch, cm, 0, 0, loc)
	return !d.Before(open) && !d.After(closing)
}

// ParseHHMM parses a wall-clock time like "09:30" (hours 0-23, minutes 0-59).
func ParseHHMM(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
