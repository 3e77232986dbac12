package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/command"
)

// Deterministic enrichment of list commands from the raw user text. These
// rules never override filters the model already set.

var searchPhrasePattern = regexp.MustCompile(
	`(?i)\b(?:mentions?|mentioning|contains?|containing|about)\s+"?([\p{L}\p{N}_-]+)"?`,
)

var quotedSearchPattern = regexp.MustCompile(
	`(?i)\b(?:mentions?|mentioning|contains?|containing|about)\s+"([^"]+)"`,
)

// enrichListCommand applies the search-term and date-range heuristics in
// place.
func enrichListCommand(cmd *command.List, userText string, now time.Time) {
	if cmd.SearchText == "" {
		if term := extractSearchTerm(userText); term != "" {
			cmd.SearchText = term
		}
	}
	if cmd.From == nil && cmd.To == nil {
		if from, to, ok := extractDateRange(userText, now); ok {
			cmd.Mode = command.ListModeRange
			cmd.From = command.NewTimestamp(from)
			cmd.To = command.NewTimestamp(to)
		}
	}
}

// extractSearchTerm pulls the quoted or trailing token out of a
// "mentions/contains/about X" phrasing.
func extractSearchTerm(text string) string {
	if m := quotedSearchPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := searchPhrasePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	dayMonthRangePattern = regexp.MustCompile(
		`(?i)\bfrom\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s+(` + monthAlt + `))?\s+to\s+(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlt + `)\b`)
	dayDashRangePattern = regexp.MustCompile(
		`(?i)\b(\d{1,2})\s*[-–]\s*(\d{1,2})\s+(` + monthAlt + `)\b`)
	numericRangePattern = regexp.MustCompile(
		`\b(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?\s*[-–]\s*(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?\b`)
	dayMonthPattern = regexp.MustCompile(
		`(?i)\b(?:on\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlt + `)\b`)
	monthDayPattern = regexp.MustCompile(
		`(?i)\b(` + monthAlt + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	numericDatePattern = regexp.MustCompile(
		`\b(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?\b`)
)

// extractDateRange recognizes the relative and absolute date phrasings
// and returns inclusive local day-range bounds.
func extractDateRange(text string, now time.Time) (time.Time, time.Time, bool) {
	lower := strings.ToLower(text)
	loc := now.Location()

	switch {
	case strings.Contains(lower, "day after tomorrow"):
		day := now.AddDate(0, 0, 2)
		from, to := dayBounds(day, loc)
		return from, to, true
	case strings.Contains(lower, "tomorrow"):
		day := now.AddDate(0, 0, 1)
		from, to := dayBounds(day, loc)
		return from, to, true
	case strings.Contains(lower, "today"):
		from, to := dayBounds(now, loc)
		return from, to, true
	case strings.Contains(lower, "this week"):
		start := weekStart(now)
		from, _ := dayBounds(start, loc)
		_, to := dayBounds(start.AddDate(0, 0, 6), loc)
		return from, to, true
	case strings.Contains(lower, "next week"):
		start := weekStart(now).AddDate(0, 0, 7)
		from, _ := dayBounds(start, loc)
		_, to := dayBounds(start.AddDate(0, 0, 6), loc)
		return from, to, true
	case strings.Contains(lower, "this month"):
		from, to := monthBounds(now.Year(), now.Month(), loc)
		return from, to, true
	case strings.Contains(lower, "next month"):
		first := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, loc)
		from, to := monthBounds(first.Year(), first.Month(), loc)
		return from, to, true
	}

	if m := dayMonthRangePattern.FindStringSubmatch(text); m != nil {
		toMonth := monthNames[strings.ToLower(m[4])]
		fromMonth := toMonth
		if m[2] != "" {
			fromMonth = monthNames[strings.ToLower(m[2])]
		}
		return makeRange(atoi(m[1]), fromMonth, 0, atoi(m[3]), toMonth, 0, now)
	}
	if m := dayDashRangePattern.FindStringSubmatch(text); m != nil {
		month := monthNames[strings.ToLower(m[3])]
		return makeRange(atoi(m[1]), month, 0, atoi(m[2]), month, 0, now)
	}
	if m := numericRangePattern.FindStringSubmatch(text); m != nil {
		return makeRange(
			atoi(m[1]), time.Month(atoi(m[2])), atoiOrZero(m[3]),
			atoi(m[4]), time.Month(atoi(m[5])), atoiOrZero(m[6]),
			now,
		)
	}
	if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		month := monthNames[strings.ToLower(m[2])]
		return makeRange(atoi(m[1]), month, 0, atoi(m[1]), month, 0, now)
	}
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		month := monthNames[strings.ToLower(m[1])]
		return makeRange(atoi(m[2]), month, 0, atoi(m[2]), month, 0, now)
	}
	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		month := time.Month(atoi(m[2]))
		year := atoiOrZero(m[3])
		return makeRange(atoi(m[1]), month, year, atoi(m[1]), month, year, now)
	}

	return time.Time{}, time.Time{}, false
}

// makeRange builds inclusive day bounds for an explicit date or date
// range. Dates without a year assume the current year, rolling to the
// next one if the range has already fully passed relative to now.
func makeRange(fromDay int, fromMonth time.Month, fromYear, toDay int, toMonth time.Month, toYear int, now time.Time) (time.Time, time.Time, bool) {
	loc := now.Location()
	yearless := fromYear == 0 && toYear == 0
	if fromYear == 0 {
		fromYear = now.Year()
	}
	if toYear == 0 {
		toYear = now.Year()
	}
	if !validDay(fromDay, fromMonth, fromYear) || !validDay(toDay, toMonth, toYear) {
		return time.Time{}, time.Time{}, false
	}

	from, _ := dayBounds(time.Date(fromYear, fromMonth, fromDay, 0, 0, 0, 0, loc), loc)
	_, to := dayBounds(time.Date(toYear, toMonth, toDay, 0, 0, 0, 0, loc), loc)
	if yearless && to.Before(now) {
		from = from.AddDate(1, 0, 0)
		to = to.AddDate(1, 0, 0)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func validDay(day int, month time.Month, year int) bool {
	if day < 1 || month < time.January || month > time.December {
		return false
	}
	return day <= time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dayBounds returns midnight and one microsecond before the next
// midnight for t's calendar day.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Microsecond)
}

// weekStart returns the Monday of t's ISO week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func monthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Microsecond)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	return atoi(s)
}
