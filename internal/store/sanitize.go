package store

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FormatTimestamp renders a snapshot timestamp as filesystem-safe ISO 8601
// (colons replaced with dashes), always in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15-04-05") + "Z"
}

// SafeCategory converts a category string to a safe file name component.
// The input is NFC-normalized first so visually identical categories map to
// the same file; the original string is preserved as a record field, never
// lost.
func SafeCategory(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
