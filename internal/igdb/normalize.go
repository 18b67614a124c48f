package igdb

import (
	"regexp"
	"strings"
)

const coverBase = "//images.igdb.com/igdb/image/upload/t_cover_big/"

var parenthesized = regexp.MustCompile(`\([^)]*\)`)

// CoverURL rewrites an IGDB cover URL to the t_cover_big size. It returns nil
// for an empty URL.
func CoverURL(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	name := raw[strings.LastIndex(raw, "/")+1:]
	if name == "" {
		return nil
	}
	out := coverBase + name
	return &out
}

// PlatformNames shortens IGDB platform names for display and drops duplicates,
// keeping first-seen order.
func PlatformNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		var display string
		if strings.Contains(n, "PC (Microsoft Windows)") {
			display = "PC"
		} else {
			display = strings.TrimSpace(parenthesized.ReplaceAllString(n, ""))
		}
		if display == "" {
			continue
		}
		if _, dup := seen[display]; dup {
			continue
		}
		seen[display] = struct{}{}
		out = append(out, display)
	}
	return out
}
