package textnorm

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
)

// Normalize canonicalizes text for exact-match lookups: trim, lowercase,
// collapse whitespace runs to a single space. Idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRe.ReplaceAllString(s, " ")
}

// StripMarkup prepares a value for display: line-break tags become newlines,
// all other tags are removed. Never applied to lookup keys.
func StripMarkup(s string) string {
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
