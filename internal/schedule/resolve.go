// Package schedule turns relative time expressions and recurrence rules
// into concrete trigger times. Everything here is pure: results depend
// only on the inputs and the location carried by now.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"remindbot/internal/command"
)

// DefaultHour is the anchor time of day used when a day reference comes
// without an explicit time.
const DefaultHour = 8

var clockPattern = regexp.MustCompile(`^(\d{1,2})[:.\-](\d{2})$`)

// ParseClock parses an explicit time-of-day string. Accepted separators
// are ":", "." and "-"; the value must be a valid 24-hour time.
func ParseClock(s string) (hour, minute int, err error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("unrecognized time of day %q", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid 24-hour time %q", s)
	}
	return hour, minute, nil
}

// ResolveRunAt resolves one reminder spec to an absolute trigger time.
// now must carry the interpretation timezone; zone-less explicit
// timestamps are reinterpreted in that zone.
func ResolveRunAt(r *command.ReminderInput, now time.Time) (time.Time, error) {
	loc := now.Location()

	if r.RunAt != nil {
		return r.RunAt.In(loc), nil
	}

	hour, minute := DefaultHour, 0
	explicitClock := false
	if r.TimeValue != "" {
		h, m, err := ParseClock(r.TimeValue)
		if err != nil {
			return time.Time{}, err
		}
		hour, minute = h, m
		explicitClock = true
	}

	switch r.DayReference {
	case command.DayToday:
		if explicitClock {
			y, m, d := now.Date()
			return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
		}
		// Next full hour strictly after now; an exact hour boundary is
		// kept as-is. Rounding is done on the wall clock so zones with
		// fractional offsets still land on local hour boundaries.
		y, m, d := now.Date()
		rounded := time.Date(y, m, d, now.Hour(), 0, 0, 0, loc)
		if now.After(rounded) {
			rounded = rounded.Add(time.Hour)
		}
		return rounded, nil

	case command.DayTomorrow:
		return dayAnchor(now.AddDate(0, 0, 1), hour, minute), nil

	case command.DayAfterTomorrow:
		return dayAnchor(now.AddDate(0, 0, 2), hour, minute), nil

	case command.DayWeekday:
		if r.Weekday == nil {
			return time.Time{}, fmt.Errorf("weekday reference without weekday value")
		}
		return dayAnchor(nextWeekday(now, *r.Weekday), hour, minute), nil

	case command.DaySpecificDate:
		if r.DateValue == nil {
			return time.Time{}, fmt.Errorf("specific_date reference without date value")
		}
		target := r.DateValue.At(hour, minute, loc)
		if !explicitClock && !dayAfter(target, now) {
			return time.Time{}, fmt.Errorf("specific_date must be in the future when time is omitted")
		}
		return target, nil
	}

	return time.Time{}, fmt.Errorf("unsupported day reference %q", r.DayReference)
}

// dayAnchor pins the calendar day of t at the given clock time.
func dayAnchor(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}

// dayAfter reports whether t falls on a later calendar day than ref.
func dayAfter(t, ref time.Time) bool {
	ty, tm, td := t.Date()
	ry, rm, rd := ref.Date()
	if ty != ry {
		return ty > ry
	}
	if tm != rm {
		return tm > rm
	}
	return td > rd
}

// nextWeekday returns the next occurrence of the named weekday strictly
// after today's date. weekday uses 0=Monday..6=Sunday; the same weekday
// as today jumps a full week ahead, never same-day.
func nextWeekday(now time.Time, weekday int) time.Time {
	target := time.Weekday((weekday + 1) % 7)
	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return now.AddDate(0, 0, daysAhead)
}
