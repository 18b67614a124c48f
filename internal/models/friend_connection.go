package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendNotSelfConstraint names the check that rejects an edge from a user to itself.
const FriendNotSelfConstraint = "chk_friend_connections_not_self"

// FriendConnection is a directed edge from UserID to FriendID. Adding B as a
// friend of A says nothing about whether A is a friend of B.
type FriendConnection struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_connections_pair" json:"user_id"`
	FriendID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friend_connections_pair;index;check:chk_friend_connections_not_self,user_id <> friend_id" json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Friend User `gorm:"foreignKey:FriendID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (FriendConnection) TableName() string {
	return "friend_connections"
}

// FriendSummary is the public shape of a user in friend and search listings.
type FriendSummary struct {
	ID          uuid.UUID `json:"id"`
	DiscordID   *string   `json:"discord_id"`
	Username    string    `json:"username"`
	Avatar      *string   `json:"avatar"`
	IsConnected bool      `json:"isConnected"`
}

// SummarizeUser builds a FriendSummary from a user with its connection preloaded.
func SummarizeUser(u User, connected bool) FriendSummary {
	return FriendSummary{
		ID:          u.ID,
		DiscordID:   u.DiscordID,
		Username:    u.DisplayName(),
		Avatar:      u.AvatarURL(),
		IsConnected: connected,
	}
}
