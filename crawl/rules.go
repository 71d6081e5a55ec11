// Package crawl — work item key rules.
// Helpers to normalize and validate keys and to pull keys out of links.
package crawl

import (
	"net/url"
	"regexp"
	"strings"
)

var keyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[0-9]+$`)

// NormalizeKey trims and upper-cases a work item key for deduplication.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidKey reports whether key has the PROJECT-123 shape.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ProjectOf returns the project part of a key, or "" if the key is invalid.
func ProjectOf(key string) string {
	key = NormalizeKey(key)
	if !ValidKey(key) {
		return ""
	}
	return key[:strings.LastIndex(key, "-")]
}

// SameProject checks if two keys belong to the same project.
func SameProject(a, b string) bool {
	pa := ProjectOf(a)
	return pa != "" && pa == ProjectOf(b)
}

// KeyFromURL extracts the key from a browse link such as
// https://example.atlassian.net/browse/ENG-42. Returns "" for other URLs.
func KeyFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(segments) - 2; i >= 0; i-- {
		if segments[i] != "browse" {
			continue
		}
		key := NormalizeKey(segments[i+1])
		if ValidKey(key) {
			return key
		}
		return ""
	}
	return ""
}
