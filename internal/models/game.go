package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical platform names games are stored under.
const (
	PlatformPC             = "PC"
	PlatformPlayStation    = "PlayStation"
	PlatformXbox           = "Xbox"
	PlatformNintendoSwitch = "Nintendo Switch"
	PlatformMobile         = "Mobile"
	PlatformOther          = "Other"
)

// Platforms lists the canonical platforms in display order.
var Platforms = []string{
	PlatformPC,
	PlatformPlayStation,
	PlatformXbox,
	PlatformNintendoSwitch,
	PlatformMobile,
	PlatformOther,
}

// CanonicalPlatform maps a free-text platform name onto one of Platforms.
func CanonicalPlatform(name string) string {
	p := strings.ToLower(name)
	switch {
	case strings.Contains(p, "pc") || strings.Contains(p, "windows"):
		return PlatformPC
	case strings.Contains(p, "playstation"):
		return PlatformPlayStation
	case strings.Contains(p, "xbox"):
		return PlatformXbox
	case strings.Contains(p, "nintendo") || strings.Contains(p, "switch"):
		return PlatformNintendoSwitch
	case strings.Contains(p, "ios") || strings.Contains(p, "android"):
		return PlatformMobile
	default:
		return PlatformOther
	}
}

// Game is a shared catalog row. The same IGDB title on two platforms is two rows.
type Game struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	IGDBID      int64      `gorm:"column:igdb_id;not null;uniqueIndex:idx_games_igdb_platform" json:"igdb_id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Cover       *string    `gorm:"type:text" json:"cover"`
	Platform    string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_games_igdb_platform;index" json:"platform"`
	ReleaseDate *time.Time `json:"release_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Game) TableName() string {
	return "games"
}

// UserGame records that a user owns a catalog row.
type UserGame struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_games_pair" json:"user_id"`
	GameID  uint      `gorm:"not null;uniqueIndex:idx_user_games_pair;index" json:"game_id"`
	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Game Game `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"game,omitempty"`
}

// TableName specifies the table name for GORM
func (UserGame) TableName() string {
	return "user_games"
}

// Ownership is one row of the game-ownership response.
type Ownership struct {
	GameID      uint      `json:"gameId"`
	UserID      uuid.UUID `json:"userId"`
	OwnedByUser bool      `json:"ownedByUser"`
}
