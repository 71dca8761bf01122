package ingest

import (
	"regexp"
	"strings"
)

var (
	digitRunRe   = regexp.MustCompile(`\d+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Signature normalizes an unparsed payload line for aggregation: digit runs
// collapse to "<#>", whitespace squashes to single spaces, and the result is
// lowercased. The transform is idempotent.
func Signature(line string) string {
	s := digitRunRe.ReplaceAllString(line, "<#>")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
