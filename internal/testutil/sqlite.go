// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"playshelf/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory SQLite database with foreign keys
// enforced and every model migrated.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:playshelf_test_%d?mode=memory&cache=shared&_foreign_keys=1", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.DiscordConnection{},
		&models.UserProfile{},
		&models.FriendConnection{},
		&models.Game{},
		&models.UserGame{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// CreateUser inserts a user linked to discordID with a cached connection
// named username. An empty discordID creates an unlinked user.
func CreateUser(t testing.TB, db *gorm.DB, discordID, username string) models.User {
	t.Helper()

	user := models.User{ID: uuid.New()}
	if discordID != "" {
		id := discordID
		user.DiscordID = &id
	}
	if err := db.Omit("DiscordConnection").Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if discordID == "" {
		return user
	}

	avatar := "https://cdn.discordapp.com/embed/avatars/0.png"
	conn := models.DiscordConnection{
		UserID:          user.ID,
		DiscordID:       discordID,
		DiscordUsername: username,
		DiscordAvatar:   &avatar,
	}
	if err := db.Create(&conn).Error; err != nil {
		t.Fatalf("create connection: %v", err)
	}
	user.DiscordConnection = &conn
	return user
}

// CreateFriendEdge inserts the directed edge from -> to.
func CreateFriendEdge(t testing.TB, db *gorm.DB, from, to uuid.UUID) {
	t.Helper()
	edge := models.FriendConnection{UserID: from, FriendID: to, CreatedAt: time.Now()}
	if err := db.Omit("User", "Friend").Create(&edge).Error; err != nil {
		t.Fatalf("create edge: %v", err)
	}
}

// CreateGame inserts a catalog row.
func CreateGame(t testing.TB, db *gorm.DB, igdbID int64, name, platform string) models.Game {
	t.Helper()
	game := models.Game{IGDBID: igdbID, Name: name, Platform: platform}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

// Own records that userID owns gameID.
func Own(t testing.TB, db *gorm.DB, userID uuid.UUID, gameID uint) {
	t.Helper()
	if err := db.Omit("User", "Game").Create(&models.UserGame{UserID: userID, GameID: gameID}).Error; err != nil {
		t.Fatalf("create ownership: %v", err)
	}
}
