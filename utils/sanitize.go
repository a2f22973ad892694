package utils

import "github.com/microcosm-cc/bluemonday"

var (
	contentPolicy = bluemonday.UGCPolicy()
	titlePolicy   = bluemonday.StrictPolicy()
)

// Sanitize cleans user-generated HTML, keeping the usual formatting tags.
func Sanitize(input string) string {
	return contentPolicy.Sanitize(input)
}

// SanitizeTitle strips all markup; titles are rendered as plain text.
func SanitizeTitle(input string) string {
	return titlePolicy.Sanitize(input)
}
