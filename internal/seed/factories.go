// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"playshelf/internal/discord"
	"playshelf/internal/models"
	"playshelf/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// discordEpoch is the first millisecond of 2015, the zero point of Discord snowflakes.
const discordEpoch = 1420070400000

// CatalogEntry is a seedable IGDB title.
type CatalogEntry struct {
	IGDBID    int64
	Name      string
	CoverID   string
	Platforms []string
}

// Catalog is a small, fixed list of well-known titles so seeded libraries overlap.
var Catalog = []CatalogEntry{
	{IGDBID: 1942, Name: "The Witcher 3: Wild Hunt", CoverID: "co1wyy", Platforms: []string{models.PlatformPC, models.PlatformPlayStation, models.PlatformXbox, models.PlatformNintendoSwitch}},
	{IGDBID: 113112, Name: "Hades", CoverID: "co39vc", Platforms: []string{models.PlatformPC, models.PlatformNintendoSwitch}},
	{IGDBID: 26758, Name: "Celeste", CoverID: "co3byy", Platforms: []string{models.PlatformPC, models.PlatformNintendoSwitch}},
	{IGDBID: 14593, Name: "Hollow Knight", CoverID: "co1rgi", Platforms: []string{models.PlatformPC, models.PlatformNintendoSwitch}},
	{IGDBID: 119133, Name: "Elden Ring", CoverID: "co4jni", Platforms: []string{models.PlatformPC, models.PlatformPlayStation, models.PlatformXbox}},
	{IGDBID: 17000, Name: "Stardew Valley", CoverID: "co5dkb", Platforms: []string{models.PlatformPC, models.PlatformNintendoSwitch, models.PlatformMobile}},
	{IGDBID: 7346, Name: "The Legend of Zelda: Breath of the Wild", CoverID: "co3p2d", Platforms: []string{models.PlatformNintendoSwitch}},
	{IGDBID: 1020, Name: "Grand Theft Auto V", CoverID: "co2lbd", Platforms: []string{models.PlatformPC, models.PlatformPlayStation, models.PlatformXbox}},
	{IGDBID: 121, Name: "Minecraft", CoverID: "co49x5", Platforms: []string{models.PlatformPC, models.PlatformMobile, models.PlatformNintendoSwitch}},
	{IGDBID: 115, Name: "League of Legends", CoverID: "co49wj", Platforms: []string{models.PlatformPC}},
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users    repository.UserRepository
	conns    repository.DiscordConnectionRepository
	friends  repository.FriendRepository
	games    repository.GameRepository
	sequence int64
	now      func() time.Time
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A
// non-zero seed makes the generated data reproducible.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{
		users:   repository.NewUserRepository(db),
		conns:   repository.NewDiscordConnectionRepository(db),
		friends: repository.NewFriendRepository(db),
		games:   repository.NewGameRepository(db),
		now:     time.Now,
	}
}

// nextSnowflake returns a unique, well-formed Discord ID.
func (f *Factory) nextSnowflake() string {
	f.sequence++
	ms := f.now().UnixMilli() - discordEpoch
	return fmt.Sprintf("%d", ms<<22|(f.sequence&0xfff))
}

// CreateUser inserts a user with a linked Discord identity. Roughly one in
// four users gets no custom avatar and falls back to Discord's default.
func (f *Factory) CreateUser(ctx context.Context) (*models.User, error) {
	discordID := f.nextSnowflake()

	user := &models.User{DiscordID: &discordID}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	var hash string
	if gofakeit.Number(1, 4) > 1 {
		hash = strings.ReplaceAll(gofakeit.UUID(), "-", "")
	}
	avatar := discord.AvatarURL(discordID, hash)

	conn, err := f.conns.Upsert(ctx, user.ID, repository.LinkedIdentity{
		DiscordID: discordID,
		Username:  gofakeit.Username(),
		Avatar:    &avatar,
	})
	if err != nil {
		return nil, fmt.Errorf("link discord for %s: %w", user.ID, err)
	}
	user.DiscordConnection = conn
	return user, nil
}

// Befriend adds the directed edge from -> to, ignoring duplicates.
func (f *Factory) Befriend(ctx context.Context, from, to *models.User) error {
	if from.ID == to.ID {
		return nil
	}
	err := f.friends.Create(ctx, &models.FriendConnection{UserID: from.ID, FriendID: to.ID})
	if err != nil && !isConflict(err) {
		return err
	}
	return nil
}

// CatalogGame finds or creates the catalog row for entry on platform.
func (f *Factory) CatalogGame(ctx context.Context, entry CatalogEntry, platform string) (*models.Game, error) {
	game, err := f.games.FindCatalog(ctx, entry.IGDBID, platform)
	if err != nil || game != nil {
		return game, err
	}

	cover := fmt.Sprintf("https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg", entry.CoverID)
	released := gofakeit.DateRange(
		time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
	).UTC()
	game = &models.Game{
		IGDBID:      entry.IGDBID,
		Name:        entry.Name,
		Cover:       &cover,
		Platform:    platform,
		ReleaseDate: &released,
	}
	if err := f.games.CreateCatalog(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Own records ownership of game by user, ignoring duplicates.
func (f *Factory) Own(ctx context.Context, user *models.User, game *models.Game) error {
	err := f.games.AddOwnership(ctx, &models.UserGame{UserID: user.ID, GameID: game.ID})
	if err != nil && !isConflict(err) {
		return err
	}
	return nil
}

func isConflict(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeConflict
}
