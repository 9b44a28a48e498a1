package model

import (
	"strings"
	"time"
)

// timeLayouts are the timestamp shapes seen in Postgres and PostgREST output.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// ParseTime parses a database timestamp. ok is false for empty or
// unrecognized input.
func ParseTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

// Time returns the parsed EventTime.
func (e WhatsAppEvent) Time() (time.Time, bool) {
	return ParseTime(e.EventTime)
}
