// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the application identity. DiscordID is set once the account has
// been linked through the Discord OAuth flow.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DiscordID *string   `gorm:"type:varchar(32);uniqueIndex" json:"discord_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DiscordConnection *DiscordConnection `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"discord_connection,omitempty"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName returns the cached Discord username or "Unknown".
func (u *User) DisplayName() string {
	if u.DiscordConnection != nil && u.DiscordConnection.DiscordUsername != "" {
		return u.DiscordConnection.DiscordUsername
	}
	return UnknownUsername
}

// AvatarURL returns the cached Discord avatar URL, if any.
func (u *User) AvatarURL() *string {
	if u.DiscordConnection == nil {
		return nil
	}
	return u.DiscordConnection.DiscordAvatar
}

// UnknownUsername is shown when no Discord profile has been cached.
const UnknownUsername = "Unknown"
