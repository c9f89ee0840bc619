package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts a title into a URL-safe slug: diacritics stripped,
// lowercased, non-alphanumeric runs collapsed into single dashes.
// Example: "Sunset Over Hills" -> "sunset-over-hills".
func Slugify(s string) string {
	// Decompose and drop combining marks (é -> e).
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, s)
	if err != nil {
		normalized = s
	}

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(normalized) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// UniqueName derives a unique, filesystem- and URL-safe name from a title.
// The embedded timestamp plus uuid suffix guarantees uniqueness per call.
func UniqueName(title string) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "wallpaper"
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%d-%s", slug, time.Now().UnixMilli(), suffix)
}
