package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscordConnection caches a user's Discord profile and, when the user signed
// in through OAuth, their encrypted tokens. There is at most one per user.
type DiscordConnection struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DiscordID       string     `gorm:"type:varchar(32);not null;index" json:"discord_id"`
	DiscordUsername string     `gorm:"type:varchar(100);index" json:"discord_username"`
	DiscordAvatar   *string    `gorm:"type:text" json:"discord_avatar"`
	AccessToken     *string    `gorm:"type:text" json:"-"`
	RefreshToken    *string    `gorm:"type:text" json:"-"`
	TokenExpiresAt  *time.Time `json:"token_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DiscordConnection) TableName() string {
	return "discord_connections"
}

// HasTokens reports whether OAuth tokens are stored for this connection.
func (d *DiscordConnection) HasTokens() bool {
	return d.AccessToken != nil && *d.AccessToken != ""
}

// UserProfile is a display projection of DiscordConnection. It is rewritten
// whenever the connection is upserted and never written on its own.
type UserProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username  string    `gorm:"type:varchar(100)" json:"username"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserProfile) TableName() string {
	return "user_profiles"
}

// ProfileFromConnection derives the profile row for a connection.
func ProfileFromConnection(conn *DiscordConnection) *UserProfile {
	return &UserProfile{
		UserID:    conn.UserID,
		Username:  conn.DiscordUsername,
		AvatarURL: conn.DiscordAvatar,
	}
}
