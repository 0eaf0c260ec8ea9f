package postform

import (
	"encoding/json"
	"strings"
)

// Slug derives the URL slug from a title: lowercase, every character other
// than an ASCII letter becomes a space, and the remaining words are joined
// with hyphens.
func Slug(title string) string {
	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return ' '
	}, strings.ToLower(title))
	return strings.Join(strings.Fields(mapped), "-")
}

// SplitTags splits a comma separated tag list and trims each entry.
func SplitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// NormalizeTags keeps the first max tags and encodes them as a JSON array.
func NormalizeTags(tags string, max int) string {
	parts := SplitTags(tags)
	if max > 0 && len(parts) > max {
		parts = parts[:max]
	}
	out, _ := json.Marshal(parts)
	return string(out)
}
