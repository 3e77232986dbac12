package models

import "time"

type ReminderStatus string

const (
	StatusPending ReminderStatus = "pending"
	StatusDone    ReminderStatus = "done"
	StatusDeleted ReminderStatus = "deleted"
)

// Reminder is one schedulable occurrence. RunAt is always stored in UTC;
// conversion to the user's timezone happens at the edges.
type Reminder struct {
	ID             int64          `json:"id"`
	ChatID         int64          `json:"chat_id"`
	Text           string         `json:"text"`
	RunAt          time.Time      `json:"run_at"`
	Status         ReminderStatus `json:"status"`
	RecurrenceRule string         `json:"recurrence_rule,omitempty"`
	SeriesID       *string        `json:"series_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsRecurring reports whether this reminder carries a recurrence rule.
func (r *Reminder) IsRecurring() bool {
	return r.RecurrenceRule != ""
}
