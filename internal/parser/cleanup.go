package parser

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformed indicates model output that could not be normalized into JSON.
var ErrMalformed = errors.New("malformed model response")

var (
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
	separatorSpaceRe = regexp.MustCompile(`\s*([:,\[\]{}])\s*`)
	trueLiteralRe    = regexp.MustCompile(`\bTrue\b`)
	falseLiteralRe   = regexp.MustCompile(`\bFalse\b`)
)

// CleanJSON normalizes raw model output into a parseable JSON string. It trims
// the text to the outermost brace pair, collapses whitespace runs, removes
// spaces around structural separators, and lowercases Python-style boolean
// literals. The transformation is idempotent.
func CleanJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", ErrMalformed
	}

	s := raw[start : end+1]
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	s = separatorSpaceRe.ReplaceAllString(s, "$1")
	s = lowercaseBooleans(s)
	return strings.TrimSpace(s), nil
}

// lowercaseBooleans rewrites capitalized boolean literals to their JSON form.
func lowercaseBooleans(s string) string {
	s = trueLiteralRe.ReplaceAllString(s, "true")
	return falseLiteralRe.ReplaceAllString(s, "false")
}
