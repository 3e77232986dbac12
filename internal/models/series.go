package models

import "time"

// ReminderSeries groups the occurrences expanded from a single recurring
// request. The recurrence rule lives here; member occurrences are plain
// rows linked by SeriesID.
type ReminderSeries struct {
	SeriesID       string    `json:"series_id"`
	ChatID         int64     `json:"chat_id"`
	SourceText     string    `json:"source_text"`
	RecurrenceRule string    `json:"recurrence_rule"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
