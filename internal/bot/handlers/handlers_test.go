package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"remindbot/internal/ai"
	"remindbot/internal/command"
	"remindbot/internal/models"
	"remindbot/internal/nlu"
)

func TestErrorReply(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "budget", err: nlu.ErrBudgetExceeded, want: "budget"},
		{name: "circuit", err: nlu.ErrCircuitOpen, want: "temporarily unavailable"},
		{name: "rate limited", err: ai.ErrRateLimited, want: "overloaded"},
		{name: "invalid", err: command.ErrInvalid, want: "could not understand"},
		{name: "wrapped invalid", err: errors.Join(errors.New("ctx"), command.ErrInvalid), want: "could not understand"},
		{name: "unknown", err: errors.New("boom"), want: "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, errorReply(tt.err), tt.want)
		})
	}
}

func TestCreatedReplyIncludesRecurrence(t *testing.T) {
	created := []*models.Reminder{{
		ID:    1,
		Text:  "water plants",
		RunAt: time.Date(2026, 2, 23, 8, 0, 0, 0, time.UTC),
	}}
	cmd := &command.Create{Reminders: []command.ReminderInput{
		{Text: "water plants", DayReference: command.DayTomorrow, RecurrenceRule: "FREQ=DAILY"},
	}}

	got := createdReply(created, cmd, time.UTC)
	assert.Contains(t, got, "water plants")
	assert.Contains(t, got, "Repeats: every day")
}
