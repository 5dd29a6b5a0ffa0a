package models

import (
	"regexp"
	"time"
)

// DateLayout is the fixed-width format of local dates; lexical order matches
// chronological order.
const DateLayout = "2006-01-02"

var localDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseLocalDate parses a YYYY-MM-DD string into midnight UTC of that day.
func ParseLocalDate(value string) (time.Time, bool) {
	if !localDatePattern.MatchString(value) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsLocalDate reports whether value is a real calendar date in YYYY-MM-DD form.
func IsLocalDate(value string) bool {
	_, ok := ParseLocalDate(value)
	return ok
}

// ParseTimestamp accepts RFC3339 timestamps or bare local dates.
func ParseTimestamp(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return ParseLocalDate(value)
}
