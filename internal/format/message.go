// Package format renders command results as chat messages.
package format

import (
	"fmt"
	"strings"
	"time"

	"remindbot/internal/models"
)

const timeLayout = "Mon, 02 Jan 2006 15:04"

// Created renders the reply for a successful create command.
func Created(items []*models.Reminder, loc *time.Location) string {
	if len(items) == 0 {
		return "Nothing was scheduled."
	}

	var b strings.Builder
	if len(items) == 1 {
		b.WriteString("Reminder scheduled:\n")
	} else {
		fmt.Fprintf(&b, "Scheduled %d reminders:\n", len(items))
	}
	for _, item := range items {
		fmt.Fprintf(&b, "• %s — %s", item.Text, item.RunAt.In(loc).Format(timeLayout))
		if item.SeriesID != nil {
			b.WriteString(" (recurring)")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// List renders the reply for a list command.
func List(items []*models.Reminder, loc *time.Location) string {
	if len(items) == 0 {
		return "No reminders found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your reminders (%d):\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "%d. %s — %s", item.ID, item.Text, item.RunAt.In(loc).Format(timeLayout))
		if item.Status != models.StatusPending {
			fmt.Fprintf(&b, " [%s]", item.Status)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Deleted renders the reply for a delete command.
func Deleted(items []*models.Reminder, loc *time.Location) string {
	if len(items) == 0 {
		return "Nothing matched, so nothing was deleted."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deleted %d reminder(s):\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "• %s — %s\n", item.Text, item.RunAt.In(loc).Format(timeLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}
