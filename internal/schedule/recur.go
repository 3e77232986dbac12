package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Frequency classes of the compact recurrence grammar.
const (
	FreqHourly  = "HOURLY"
	FreqDaily   = "DAILY"
	FreqWeekly  = "WEEKLY"
	FreqMonthly = "MONTHLY"
)

// Default expansion caps per frequency when a rule has no explicit end
// bound. They keep user requests finite without asking for an UNTIL.
var defaultCounts = map[string]int{
	FreqHourly:  24,
	FreqDaily:   7,
	FreqWeekly:  4,
	FreqMonthly: 12,
}

// expansion safety cap for UNTIL-bounded rules
const maxExpansion = 1000

// Rule is a parsed recurrence rule: semicolon-separated KEY=VALUE tokens
// with a mandatory FREQ, optional INTERVAL (default 1) and optional ISO
// UNTIL bound.
type Rule struct {
	Freq     string
	Interval int
	Until    *time.Time
}

var untilFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"20060102T150405Z",
}

// ParseRule parses a rule string. It returns nil for an empty string and
// for rules without a recognized FREQ; malformed interval values fall
// back to 1, matching the tolerant historical behavior.
func ParseRule(rule string) *Rule {
	if rule == "" {
		return nil
	}
	parts := map[string]string{}
	for _, token := range strings.Split(rule, ";") {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	freq := strings.ToUpper(parts["FREQ"])
	if _, known := defaultCounts[freq]; !known {
		return nil
	}

	interval := 1
	if raw := parts["INTERVAL"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			interval = n
		}
	}

	parsed := &Rule{Freq: freq, Interval: interval}
	if raw := parts["UNTIL"]; raw != "" {
		for _, layout := range untilFormats {
			if t, err := time.Parse(layout, raw); err == nil {
				parsed.Until = &t
				break
			}
		}
	}
	return parsed
}

// IsRecurring reports whether the rule string describes a recurrence.
func IsRecurring(rule string) bool {
	return ParseRule(rule) != nil
}

// step advances one occurrence by the rule's interval. Monthly steps
// clamp the day-of-month to the last valid day of the target month.
func (r *Rule) step(t time.Time) time.Time {
	switch r.Freq {
	case FreqHourly:
		return t.Add(time.Duration(r.Interval) * time.Hour)
	case FreqDaily:
		return t.AddDate(0, 0, r.Interval)
	case FreqWeekly:
		return t.AddDate(0, 0, 7*r.Interval)
	case FreqMonthly:
		return addMonthsClamped(t, r.Interval)
	}
	return t
}

// Expand produces the bounded set of occurrences for a rule starting at
// first. Without an UNTIL the count is capped per frequency; with one,
// expansion stops before the first occurrence reaching the bound.
func Expand(first time.Time, rule string) []time.Time {
	parsed := ParseRule(rule)
	if parsed == nil {
		return []time.Time{first}
	}

	runs := []time.Time{first}
	if parsed.Until != nil {
		for len(runs) < maxExpansion {
			next := parsed.step(runs[len(runs)-1])
			if !next.Before(*parsed.Until) {
				break
			}
			runs = append(runs, next)
		}
		return runs
	}

	for len(runs) < defaultCounts[parsed.Freq] {
		runs = append(runs, parsed.step(runs[len(runs)-1]))
	}
	return runs
}

// Next returns the single-step successor of current under the rule, or
// nil when the rule is absent/unrecognized or the successor would reach
// the UNTIL bound.
func Next(current time.Time, rule string) *time.Time {
	parsed := ParseRule(rule)
	if parsed == nil {
		return nil
	}
	next := parsed.step(current)
	if parsed.Until != nil && !next.Before(*parsed.Until) {
		return nil
	}
	return &next
}

// addMonthsClamped steps forward by months, clamping the day-of-month to
// the last valid day of the target month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if last := daysInMonth(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
