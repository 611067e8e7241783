package taxonomy

import (
	"regexp"
	"strings"
)

var nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateFallbackID derives a stable identifier from free text: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, no leading or trailing
// hyphen. Used when a workload has no recorded id for a question or choice.
func GenerateFallbackID(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, " "))
	slug := nonAlphanumericRe.ReplaceAllString(joined, "-")
	return strings.Trim(slug, "-")
}

// PillarSlug normalizes a pillar name for comparisons: lowercase with
// whitespace runs replaced by hyphens.
func PillarSlug(pillar string) string {
	return strings.Join(strings.Fields(strings.ToLower(pillar)), "-")
}
