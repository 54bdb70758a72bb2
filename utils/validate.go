package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Password bounds. bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// IsValidEmail reports whether s looks like a deliverable address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) <= 254 && emailPattern.MatchString(s)
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidPassword checks the password length bounds.
func IsValidPassword(s string) bool {
	return len(s) >= MinPasswordLength && len(s) <= MaxPasswordLength
}

// WithinLength reports whether the trimmed text is non-empty and at most max characters.
func WithinLength(s string, max int) bool {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return n > 0 && n <= max
}

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ErrInvalidDate is returned by ParseEventDate for unparseable input.
var ErrInvalidDate = errors.New("invalid date")

// ParseEventDate accepts RFC3339 and the common HTML date/datetime-local forms.
// Values without a zone are read as UTC.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Paging reads limit/offset query values with a default and an upper bound.
func Paging(limitStr, offsetStr string, def, max int) (int, int) {
	limit := atoiOr(limitStr, def)
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	offset := atoiOr(offsetStr, 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
