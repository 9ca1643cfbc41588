package store

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxBodyBytes is the longest message body accepted for persistence.
const MaxBodyBytes = 4096

// GetDayBefore gets the time of before `days`, exclude today.
func GetDayBefore(days int32) time.Time {
	days += 1
	offset := time.Duration(days*24) * time.Hour
	d := time.Now().Add(-offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}

// ValidateBody trims body and reports whether the result is storable:
// non-empty, valid UTF-8, within the size limit.
func ValidateBody(body string) (string, bool) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > MaxBodyBytes || !utf8.ValidString(body) {
		return "", false
	}
	return body, true
}
