// Package schedule implements day/time overlap detection between scheduled
// section meetings. It has no persistence and no side effects.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Meeting is the scheduling slice of a section: the day-code set it meets
// on and its same-day wall-clock interval.
type Meeting struct {
	Days      string
	TimeStart string
	TimeEnd   string
}

// ParseDays splits a day-code string such as "SUN,MON" or "MON WED" into
// a normalized set. Commas and whitespace both separate tokens; tokens are
// case-insensitive.
func ParseDays(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, tok := range tokens {
		set[strings.ToUpper(tok)] = struct{}{}
	}
	return set
}

// ParseClock converts an "HH:MM" wall-clock string into minutes since
// midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// Overlaps reports whether two meetings conflict: they share at least one
// day and their intervals overlap as half-open ranges, so a meeting ending
// exactly when the other starts is not a conflict. The check is symmetric.
// Meetings with malformed times never conflict.
func Overlaps(a, b Meeting) bool {
	if !shareDay(ParseDays(a.Days), ParseDays(b.Days)) {
		return false
	}

	aStart, err := ParseClock(a.TimeStart)
	if err != nil {
		return false
	}
	aEnd, err := ParseClock(a.TimeEnd)
	if err != nil {
		return false
	}
	bStart, err := ParseClock(b.TimeStart)
	if err != nil {
		return false
	}
	bEnd, err := ParseClock(b.TimeEnd)
	if err != nil {
		return false
	}

	return aStart < bEnd && bStart < aEnd
}

// AnyOverlap reports whether the candidate conflicts with any of the given
// meetings, used to screen a registration batch and a student's existing
// schedule.
func AnyOverlap(candidate Meeting, existing []Meeting) bool {
	for _, m := range existing {
		if Overlaps(candidate, m) {
			return true
		}
	}
	return false
}

func shareDay(a, b map[string]struct{}) bool {
	for day := range a {
		if _, ok := b[day]; ok {
			return true
		}
	}
	return false
}
