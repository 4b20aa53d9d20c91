package textutil

import (
	"regexp"
	"strings"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// collapses runs of internal whitespace to a single space and
// trims the edges. cell text from the portal is full of layout
// newlines and non-breaking indentation.
func NormalizeSpace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.Trim(s, " ")
}
