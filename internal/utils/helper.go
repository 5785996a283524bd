package utils

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)
	quoteReplacer = strings.NewReplacer("'", "", "’", "", "`", "")
)

// Slugify lowercases input, drops apostrophes, collapses every other run of
// non-alphanumeric characters into a single dash and trims dashes at both ends.
// "Men's Clothing" becomes "mens-clothing".
func Slugify(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = quoteReplacer.Replace(slug)
	slug = nonAlnumRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NormalizeEmail trims and lowercases an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
