package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var snowflakeRegex = regexp.MustCompile(`^\d+$`)

// MaxSearchQueryLength caps free-text search input.
const MaxSearchQueryLength = 100

// IsSnowflake reports whether s looks like a Discord snowflake ID.
func IsSnowflake(s string) bool {
	return snowflakeRegex.MatchString(s)
}

// ValidateDiscordID validates a Discord snowflake passed as a string.
func ValidateDiscordID(id string) error {
	if id == "" {
		return fmt.Errorf("discord id is required")
	}
	if err := instance().Var(id, "max=20,snowflake"); err != nil {
		return fmt.Errorf("discord id must be numeric")
	}
	return nil
}

// NormalizeSearchQuery trims q and truncates it to MaxSearchQueryLength runes.
// An empty result means the query is missing.
func NormalizeSearchQuery(q string) string {
	q = strings.TrimSpace(q)
	if r := []rune(q); len(r) > MaxSearchQueryLength {
		q = string(r[:MaxSearchQueryLength])
	}
	return q
}

// EscapeLike escapes the LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
