package discord

import (
	"fmt"
	"strconv"
	"strings"
)

const cdnBase = "https://cdn.discordapp.com"

// AvatarURL builds the CDN URL for a user's avatar. A missing hash maps to
// one of the five default avatars, picked by the snowflake modulo 5; IDs that
// are not numeric use the first one. It never returns an empty string.
func AvatarURL(discordID, hash string) string {
	if hash == "" {
		return DefaultAvatarURL(discordID)
	}
	ext := "png"
	if strings.HasPrefix(hash, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnBase, discordID, hash, ext)
}

// DefaultAvatarURL returns the embed avatar for discordID.
func DefaultAvatarURL(discordID string) string {
	n, err := strconv.ParseUint(discordID, 10, 64)
	if err != nil {
		n = 0
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBase, n%5)
}
