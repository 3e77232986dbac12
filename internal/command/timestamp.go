package command

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp accepts the timestamp shapes the model actually emits: full
// RFC 3339, or a zone-less local form. A zone-less value always means the
// reference timezone and is reinterpreted by In at resolution time.
type Timestamp struct {
	Time    time.Time
	HasZone bool
}

var zonedFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var naiveFormats = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t, HasZone: true}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return fmt.Errorf("timestamp is empty")
	}
	for _, layout := range zonedFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			t.HasZone = true
			return nil
		}
	}
	for _, layout := range naiveFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			t.HasZone = false
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Time.Format(time.RFC3339) + `"`), nil
}

// In returns the timestamp as an absolute time. Zoned values convert;
// zone-less values are reinterpreted with the same clock reading in loc.
func (t Timestamp) In(loc *time.Location) time.Time {
	if t.HasZone {
		return t.Time
	}
	return time.Date(
		t.Time.Year(), t.Time.Month(), t.Time.Day(),
		t.Time.Hour(), t.Time.Minute(), t.Time.Second(), t.Time.Nanosecond(),
		loc,
	)
}

// Date is a calendar date without a time component, wire format
// 2006-01-02.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("unrecognized date %q", s)
	}
	d.Year, d.Month, d.Day = parsed.Date()
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%04d-%02d-%02d"`, d.Year, int(d.Month), d.Day)), nil
}

// At anchors the date at the given clock time in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}
