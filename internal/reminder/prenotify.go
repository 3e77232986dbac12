package reminder

import "strings"

// preNotifyMarker prefixes the text of internal one-hour-ahead
// companion reminders. Marked rows never surface to the user as list
// or creation results.
const preNotifyMarker = "__pre1h__::"

// PreNotifyText builds the stored text of a companion reminder.
func PreNotifyText(text string) string {
	return preNotifyMarker + text
}

// IsPreNotify reports whether a stored text belongs to a companion
// reminder.
func IsPreNotify(text string) bool {
	return strings.HasPrefix(text, preNotifyMarker)
}

// UnwrapPreNotify strips the marker, returning the original reminder
// text untouched when no marker is present.
func UnwrapPreNotify(text string) string {
	return strings.TrimPrefix(text, preNotifyMarker)
}
