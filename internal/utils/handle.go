package utils

import (
	"strings"

	"github.com/google/uuid"
)

// HandleFromName derives a unique, URL-safe handle from a display name
// by slugifying it and appending a short random suffix. Uniqueness is
// still enforced by the database; the suffix just makes collisions
// unlikely enough that signup rarely needs a retry.
func HandleFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "user"
	}
	if len(slug) > 24 {
		slug = slug[:24]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return slug + "_" + suffix
}
