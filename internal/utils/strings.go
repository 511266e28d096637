package utils

import (
	"strings"
	"time"

	"github.com/evacdesk/rollcall/internal/clock"
)

// NormalizeCode canonicalizes a staff or access code: trimmed, upper-case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName trims whitespace from a free-text name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// IsValidDay reports whether s is a YYYY-MM-DD calendar day.
func IsValidDay(s string) bool {
	_, err := time.Parse(clock.DayFormat, s)
	return err == nil
}

var weekdays = map[string]string{
	"sunday":    "Sunday",
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
	"saturday":  "Saturday",
}

// CanonicalWeekday maps a case-insensitive weekday name to its canonical
// English form. ok is false for anything that is not a weekday.
func CanonicalWeekday(s string) (string, bool) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return day, ok
}
