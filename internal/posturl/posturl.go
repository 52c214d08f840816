// Package posturl contains pure helpers for canonicalizing post-sharing URLs
// and extracting the post shortcode they embed. Both functions are total:
// they never return an error and never panic on arbitrary input.
package posturl

import (
	"regexp"
	"strings"
)

// shortcodeRe matches the shortcode segment of a post or reel sharing URL,
// e.g. https://example.com/p/AbC12_x-/ or .../reel/XYZ789.
var shortcodeRe = regexp.MustCompile(`/(?:p|reel)/([A-Za-z0-9_-]+)`)

// ExtractShortcode returns the shortcode embedded in a post-sharing URL.
// The second return value is false when the URL contains neither a /p/
// nor a /reel/ segment.
func ExtractShortcode(rawURL string) (string, bool) {
	m := shortcodeRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Normalize converts a raw post URL into its canonical embed form: leading
// and trailing whitespace is trimmed, at most one trailing slash is removed,
// and the "/embed/" suffix is appended unless the URL already designates the
// embed variant. Normalize is idempotent.
func Normalize(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	s = strings.TrimSuffix(s, "/")
	if strings.HasSuffix(s, "/embed") {
		return s + "/"
	}
	return s + "/embed/"
}
