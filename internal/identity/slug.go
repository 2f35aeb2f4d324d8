package identity

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSlugLen = 50

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a display name: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, leading and
// trailing hyphens trimmed, truncated to 50 characters.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}

// SlugWithSuffix disambiguates a colliding slug with a numeric suffix,
// keeping the result within the length cap.
func SlugWithSuffix(base string, n int) string {
	suffix := fmt.Sprintf("-%d", n)
	if len(base)+len(suffix) > maxSlugLen {
		base = base[:maxSlugLen-len(suffix)]
	}
	return base + suffix
}
