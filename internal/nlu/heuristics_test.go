package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindbot/internal/command"
)

// Sunday, Feb 22 2026, 10:15 local.
func heuristicsNow() time.Time {
	return time.Date(2026, 2, 22, 10, 15, 0, 0, time.UTC)
}

func day(d int, month time.Month) (time.Time, time.Time) {
	start := time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1).Add(-time.Microsecond)
}

func TestExtractSearchTerm(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "show reminders about dentist", want: "dentist"},
		{text: "list everything that mentions rent", want: "rent"},
		{text: `delete reminders containing "team standup"`, want: "team standup"},
		{text: "show all my reminders", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSearchTerm(tt.text))
		})
	}
}

func TestExtractDateRangeKeywords(t *testing.T) {
	now := heuristicsNow()

	tests := []struct {
		name string
		text string
	}{
		{
			name: "today",
			text: "what do I have today",
		},
		{
			name: "tomorrow",
			text: "reminders for tomorrow please",
		},
		{
			name: "day after tomorrow",
			text: "plans for the day after tomorrow",
		},
		{
			name: "this week",
			text: "what's on this week",
		},
		{
			name: "next week",
			text: "show next week",
		},
		{
			name: "this month",
			text: "everything this month",
		},
		{
			name: "next month",
			text: "everything next month",
		},
	}

	expectations := map[string][2]time.Time{}
	set := func(name string, from, to time.Time) { expectations[name] = [2]time.Time{from, to} }
	f, tt0 := day(22, time.February)
	set("today", f, tt0)
	f, tt0 = day(23, time.February)
	set("tomorrow", f, tt0)
	f, tt0 = day(24, time.February)
	set("day after tomorrow", f, tt0)
	// Feb 22 2026 is a Sunday, so the ISO week runs Feb 16 through 22.
	f, _ = day(16, time.February)
	_, tt0 = day(22, time.February)
	set("this week", f, tt0)
	f, _ = day(23, time.February)
	_, tt0 = day(1, time.March)
	set("next week", f, tt0)
	f = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	set("this month", f, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond))
	f = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	set("next month", f, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := extractDateRange(tt.text, now)
			require.True(t, ok)
			want := expectations[tt.name]
			assert.True(t, from.Equal(want[0]), "from: got %v want %v", from, want[0])
			assert.True(t, to.Equal(want[1]), "to: got %v want %v", to, want[1])
		})
	}
}

func TestExtractDateRangeExplicit(t *testing.T) {
	now := heuristicsNow()

	t.Run("day month", func(t *testing.T) {
		from, to, ok := extractDateRange("what's on 24 february", now)
		require.True(t, ok)
		wantFrom, wantTo := day(24, time.February)
		assert.True(t, from.Equal(wantFrom))
		assert.True(t, to.Equal(wantTo))
	})

	t.Run("month day", func(t *testing.T) {
		from, _, ok := extractDateRange("show february 24", now)
		require.True(t, ok)
		wantFrom, _ := day(24, time.February)
		assert.True(t, from.Equal(wantFrom))
	})

	t.Run("dash range", func(t *testing.T) {
		from, to, ok := extractDateRange("reminders 24-26 february", now)
		require.True(t, ok)
		wantFrom, _ := day(24, time.February)
		_, wantTo := day(26, time.February)
		assert.True(t, from.Equal(wantFrom))
		assert.True(t, to.Equal(wantTo))
	})

	t.Run("from to range", func(t *testing.T) {
		from, to, ok := extractDateRange("from 24 february to 2 march", now)
		require.True(t, ok)
		wantFrom, _ := day(24, time.February)
		_, wantTo := day(2, time.March)
		assert.True(t, from.Equal(wantFrom))
		assert.True(t, to.Equal(wantTo))
	})

	t.Run("numeric range with year", func(t *testing.T) {
		from, to, ok := extractDateRange("between 01.03.2026-05.03.2026", now)
		require.True(t, ok)
		wantFrom, _ := day(1, time.March)
		_, wantTo := day(5, time.March)
		assert.True(t, from.Equal(wantFrom))
		assert.True(t, to.Equal(wantTo))
	})

	t.Run("yearless past date rolls forward", func(t *testing.T) {
		from, _, ok := extractDateRange("on 10 january", now)
		require.True(t, ok)
		assert.Equal(t, 2027, from.Year())
	})

	t.Run("invalid day rejected", func(t *testing.T) {
		_, _, ok := extractDateRange("on 30 february", now)
		assert.False(t, ok)
	})

	t.Run("no date", func(t *testing.T) {
		_, _, ok := extractDateRange("show all my reminders", now)
		assert.False(t, ok)
	})
}

func TestEnrichListCommand(t *testing.T) {
	now := heuristicsNow()

	t.Run("fills search and range", func(t *testing.T) {
		cmd := &command.List{Command: command.NameList, Mode: command.ListModeAll}
		enrichListCommand(cmd, "what's about dentist tomorrow", now)

		assert.Equal(t, "dentist", cmd.SearchText)
		assert.Equal(t, command.ListModeRange, cmd.Mode)
		require.NotNil(t, cmd.From)
		require.NotNil(t, cmd.To)
		wantFrom, _ := day(23, time.February)
		assert.True(t, cmd.From.In(time.UTC).Equal(wantFrom))
	})

	t.Run("keeps model filters", func(t *testing.T) {
		from := command.NewTimestamp(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		cmd := &command.List{
			Command: command.NameList, Mode: command.ListModeSearch,
			SearchText: "rent", From: from,
		}
		enrichListCommand(cmd, "about dentist tomorrow", now)

		assert.Equal(t, "rent", cmd.SearchText)
		assert.Equal(t, command.ListModeSearch, cmd.Mode)
		assert.Same(t, from, cmd.From)
	})
}
