package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	IGDBSearchKeyPrefix  = "igdb:search:%s"
	DiscordUserKeyPrefix = "discord:user:%s"
	RevokedTokenPrefix   = "blacklist:%s"
	OAuthStateKeyPrefix  = "oauth_state:%s"
)

const (
	IGDBSearchTTL  = 10 * time.Minute
	DiscordUserTTL = 5 * time.Minute
	OAuthStateTTL  = 10 * time.Minute
)

// IGDBSearchKey keys a catalog search by its normalized query.
func IGDBSearchKey(query string) string {
	return fmt.Sprintf(IGDBSearchKeyPrefix, strings.ToLower(strings.TrimSpace(query)))
}

func DiscordUserKey(discordID string) string {
	return fmt.Sprintf(DiscordUserKeyPrefix, discordID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}

func OAuthStateKey(state string) string {
	return fmt.Sprintf(OAuthStateKeyPrefix, state)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateDiscordUser(ctx context.Context, discordID string) {
	Invalidate(ctx, DiscordUserKey(discordID))
}
