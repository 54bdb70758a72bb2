package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// maxSanitizeRounds bounds the decode/strip loop for layered entity encodings.
const maxSanitizeRounds = 8

// StripTags removes every HTML element from user supplied plain text, including
// markup hidden behind entity encoding ("&lt;img ...&gt;", "&amp;lt;img ...").
// The result is a fixed point: stripping and decoding it again changes nothing,
// so it never turns back into a tag.
func StripTags(input string) string {
	s := input
	for i := 0; i < maxSanitizeRounds; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(html.UnescapeString(s)))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// Still changing: keep the escaped form rather than decoded text.
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
