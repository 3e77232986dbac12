package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// DescribeRule renders a recurrence rule as a short human phrase, e.g.
// "every 2 days until Sun, 01 Mar 2026 10:00". The rule is normalized
// through the RFC 5545 parser first; anything it rejects comes back as
// the raw string.
func DescribeRule(rule string, loc *time.Location) string {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return ""
	}

	opt, err := rrule.StrToROption(toRFC5545(rule))
	if err != nil {
		return rule
	}

	unit := map[rrule.Frequency]string{
		rrule.HOURLY:  "hour",
		rrule.DAILY:   "day",
		rrule.WEEKLY:  "week",
		rrule.MONTHLY: "month",
	}[opt.Freq]
	if unit == "" {
		return rule
	}

	var b strings.Builder
	if opt.Interval <= 1 {
		fmt.Fprintf(&b, "every %s", unit)
	} else {
		fmt.Fprintf(&b, "every %d %ss", opt.Interval, unit)
	}
	if !opt.Until.IsZero() {
		fmt.Fprintf(&b, " until %s", opt.Until.In(loc).Format(timeLayout))
	}
	return b.String()
}

// toRFC5545 rewrites the stored rule into strict RFC 5545 form: keys
// upper-cased and ISO 8601 UNTIL values compacted to basic format.
func toRFC5545(rule string) string {
	parts := strings.Split(rule, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "FREQ" {
			value = strings.ToUpper(value)
		}
		if key == "UNTIL" {
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				value = t.UTC().Format("20060102T150405Z")
			}
		}
		out = append(out, key+"="+value)
	}
	return strings.Join(out, ";")
}
