package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRegex    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	mediumRegex     = regexp.MustCompile(`(?i)\b(?:CD|disc)\s*\d+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// NormalizeQuery prepares a free-text artist/album/title query for the
// catalog search endpoints. Punctuation such as "!" and "-" can make an
// otherwise matching query return nothing, and medium markers like
// "CD1" or "disc 2" never appear in catalog titles, so both are
// stripped. Non-ASCII word characters are preserved.
//
// The result is idempotent: normalizing an already-normalized query
// returns the same string.
func NormalizeQuery(query string) string {
	query = norm.NFKC.String(query)
	query = nonWordRegex.ReplaceAllString(query, " ")
	query = mediumRegex.ReplaceAllString(query, "")
	query = whitespaceRegex.ReplaceAllString(query, " ")

	return strings.TrimSpace(query)
}
