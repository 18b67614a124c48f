package database

import "playshelf/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.DiscordConnection{},
		&models.UserProfile{},
		&models.FriendConnection{},
		&models.Game{},
		&models.UserGame{},
	}
}
