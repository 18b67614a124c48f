package service

import (
	"context"
	"time"

	"playshelf/internal/discord"
	"playshelf/internal/igdb"
	"playshelf/internal/models"
	"playshelf/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type userRepoStub struct {
	getByIDFn          func(context.Context, uuid.UUID) (*models.User, error)
	getByDiscordIDFn   func(context.Context, string) (*models.User, error)
	listByDiscordIDsFn func(context.Context, []string) ([]models.User, error)
	existsFn           func(context.Context, uuid.UUID) (bool, error)
	createFn           func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	return s.getByDiscordIDFn(ctx, discordID)
}
func (s *userRepoStub) ListByDiscordIDs(ctx context.Context, ids []string) ([]models.User, error) {
	return s.listByDiscordIDsFn(ctx, ids)
}
func (s *userRepoStub) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

type friendRepoStub struct {
	existsFn      func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
	createFn      func(context.Context, *models.FriendConnection) error
	listFriendsFn func(context.Context, uuid.UUID) ([]models.User, error)
	connectedToFn func(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]bool, error)
}

func (s *friendRepoStub) Exists(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	return s.existsFn(ctx, userID, friendID)
}
func (s *friendRepoStub) Create(ctx context.Context, edge *models.FriendConnection) error {
	return s.createFn(ctx, edge)
}
func (s *friendRepoStub) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	return s.listFriendsFn(ctx, userID)
}
func (s *friendRepoStub) ConnectedTo(ctx context.Context, userID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.connectedToFn(ctx, userID, candidates)
}

type connRepoStub struct {
	getByUserIDFn  func(context.Context, uuid.UUID) (*models.DiscordConnection, error)
	reconcileFn    func(context.Context, repository.LinkedIdentity) (*models.User, error)
	upsertFn       func(context.Context, uuid.UUID, repository.LinkedIdentity) (*models.DiscordConnection, error)
	updateTokensFn func(context.Context, uuid.UUID, *string, *string, *time.Time) error
	searchUsersFn  func(context.Context, repository.UserSearch) ([]models.User, error)
}

func (s *connRepoStub) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.DiscordConnection, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *connRepoStub) Reconcile(ctx context.Context, identity repository.LinkedIdentity) (*models.User, error) {
	return s.reconcileFn(ctx, identity)
}
func (s *connRepoStub) Upsert(ctx context.Context, userID uuid.UUID, identity repository.LinkedIdentity) (*models.DiscordConnection, error) {
	return s.upsertFn(ctx, userID, identity)
}
func (s *connRepoStub) UpdateTokens(ctx context.Context, userID uuid.UUID, access, refresh *string, expiresAt *time.Time) error {
	return s.updateTokensFn(ctx, userID, access, refresh, expiresAt)
}
func (s *connRepoStub) SearchUsers(ctx context.Context, params repository.UserSearch) ([]models.User, error) {
	return s.searchUsersFn(ctx, params)
}

type gameRepoStub struct {
	findCatalogFn     func(context.Context, int64, string) (*models.Game, error)
	createCatalogFn   func(context.Context, *models.Game) error
	addOwnershipFn    func(context.Context, *models.UserGame) error
	removeOwnershipFn func(context.Context, uuid.UUID, uint) (int64, error)
	libraryFn         func(context.Context, uuid.UUID) ([]models.UserGame, error)
	ownershipsFn      func(context.Context, []uuid.UUID) ([]models.Ownership, error)
	ownersOfFn        func(context.Context, []uint, []uuid.UUID) ([]models.UserGame, error)
}

func (s *gameRepoStub) FindCatalog(ctx context.Context, igdbID int64, platform string) (*models.Game, error) {
	return s.findCatalogFn(ctx, igdbID, platform)
}
func (s *gameRepoStub) CreateCatalog(ctx context.Context, game *models.Game) error {
	return s.createCatalogFn(ctx, game)
}
func (s *gameRepoStub) AddOwnership(ctx context.Context, ownership *models.UserGame) error {
	return s.addOwnershipFn(ctx, ownership)
}
func (s *gameRepoStub) RemoveOwnership(ctx context.Context, userID uuid.UUID, gameID uint) (int64, error) {
	return s.removeOwnershipFn(ctx, userID, gameID)
}
func (s *gameRepoStub) Library(ctx context.Context, userID uuid.UUID) ([]models.UserGame, error) {
	return s.libraryFn(ctx, userID)
}
func (s *gameRepoStub) Ownerships(ctx context.Context, userIDs []uuid.UUID) ([]models.Ownership, error) {
	return s.ownershipsFn(ctx, userIDs)
}
func (s *gameRepoStub) OwnersOf(ctx context.Context, gameIDs []uint, userIDs []uuid.UUID) ([]models.UserGame, error) {
	return s.ownersOfFn(ctx, gameIDs, userIDs)
}

type discordAPIStub struct {
	botToken      bool
	exchangeFn    func(context.Context, string) (*oauth2.Token, error)
	refreshFn     func(context.Context, string) (*oauth2.Token, error)
	currentUserFn func(context.Context, string) (*discord.Profile, error)
	userByIDFn    func(context.Context, string) (*discord.Profile, error)
	friendsFn     func(context.Context, string) ([]discord.Profile, error)
}

func (s *discordAPIStub) AuthCodeURL(state string) string {
	return "https://discord.com/oauth2/authorize?state=" + state
}
func (s *discordAPIStub) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.exchangeFn(ctx, code)
}
func (s *discordAPIStub) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return s.refreshFn(ctx, refreshToken)
}
func (s *discordAPIStub) CurrentUser(ctx context.Context, accessToken string) (*discord.Profile, error) {
	return s.currentUserFn(ctx, accessToken)
}
func (s *discordAPIStub) UserByID(ctx context.Context, discordID string) (*discord.Profile, error) {
	return s.userByIDFn(ctx, discordID)
}
func (s *discordAPIStub) Friends(ctx context.Context, accessToken string) ([]discord.Profile, error) {
	return s.friendsFn(ctx, accessToken)
}
func (s *discordAPIStub) HasBotToken() bool { return s.botToken }

type catalogStub struct {
	calls    int
	searchFn func(context.Context, string) (*igdb.SearchResult, error)
}

func (s *catalogStub) Search(ctx context.Context, query string) (*igdb.SearchResult, error) {
	s.calls++
	return s.searchFn(ctx, query)
}
