package service

import (
	"context"
	"time"

	"playshelf/internal/cache"
	"playshelf/internal/igdb"
	"playshelf/internal/models"
	"playshelf/internal/repository"
	"playshelf/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CatalogSearcher searches the external game catalog.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) (*igdb.SearchResult, error)
}

// AddGameInput is a request to put a catalog title on the user's shelf.
type AddGameInput struct {
	IGDBID      int64      `json:"igdbId" validate:"gt=0"`
	Name        string     `json:"name" validate:"required,max=255"`
	Cover       *string    `json:"cover"`
	Platform    string     `json:"platform" validate:"required,max=100"`
	ReleaseDate *time.Time `json:"releaseDate"`
}

// AddGameResult reports the outcome of AddGame. When AlreadyOwned is set
// no ownership row was written.
type AddGameResult struct {
	AlreadyOwned bool
	Game         *models.Game
}

// FriendOwner is a friend who owns a dashboard game.
type FriendOwner struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar"`
}

// DashboardGame is a library entry annotated with friend owners.
type DashboardGame struct {
	ID           uint          `json:"id"`
	IGDBID       int64         `json:"igdb_id"`
	Name         string        `json:"name"`
	Cover        *string       `json:"cover"`
	ReleaseDate  *time.Time    `json:"release_date"`
	FriendOwners []FriendOwner `json:"friendOwners"`
}

// DashboardPlatform groups dashboard games under one canonical platform.
type DashboardPlatform struct {
	Platform string          `json:"platform"`
	Games    []DashboardGame `json:"games"`
}

// Dashboard is the aggregated home view.
type Dashboard struct {
	Platforms []DashboardPlatform    `json:"platforms"`
	Friends   []models.FriendSummary `json:"friends"`
}

// GameService provides catalog search, library and ownership logic.
type GameService struct {
	gameRepo   repository.GameRepository
	friendRepo repository.FriendRepository
	catalog    CatalogSearcher
}

// NewGameService returns a new GameService.
func NewGameService(gameRepo repository.GameRepository, friendRepo repository.FriendRepository, catalog CatalogSearcher) *GameService {
	return &GameService{gameRepo: gameRepo, friendRepo: friendRepo, catalog: catalog}
}

// SearchCatalog searches IGDB, serving repeated queries from Redis.
func (s *GameService) SearchCatalog(ctx context.Context, query string) (*igdb.SearchResult, error) {
	query = validation.NormalizeSearchQuery(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	var result igdb.SearchResult
	err := cache.Aside(ctx, cache.IGDBSearchKey(query), &result, cache.IGDBSearchTTL, func() error {
		res, err := s.catalog.Search(ctx, query)
		if err != nil {
			return err
		}
		result = *res
		return nil
	})
	if err != nil {
		return nil, models.NewUpstreamError("Failed to search games", err)
	}
	if result.Games == nil {
		result.Games = []igdb.Game{}
	}
	return &result, nil
}

// AddGame finds or creates the (igdb_id, platform) catalog row and records
// ownership. The two writes are not atomic; an orphaned catalog row is harmless.
func (s *GameService) AddGame(ctx context.Context, userID uuid.UUID, in AddGameInput) (*AddGameResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	platform := models.CanonicalPlatform(in.Platform)

	game, err := s.findOrCreateCatalog(ctx, in, platform)
	if err != nil {
		return nil, err
	}

	if err := s.gameRepo.AddOwnership(ctx, &models.UserGame{UserID: userID, GameID: game.ID}); err != nil {
		if isConflict(err) {
			return &AddGameResult{AlreadyOwned: true, Game: game}, nil
		}
		return nil, err
	}
	return &AddGameResult{Game: game}, nil
}

func (s *GameService) findOrCreateCatalog(ctx context.Context, in AddGameInput, platform string) (*models.Game, error) {
	game, err := s.gameRepo.FindCatalog(ctx, in.IGDBID, platform)
	if err != nil {
		return nil, err
	}
	if game != nil {
		return game, nil
	}

	game = &models.Game{
		IGDBID:      in.IGDBID,
		Name:        in.Name,
		Cover:       in.Cover,
		Platform:    platform,
		ReleaseDate: in.ReleaseDate,
	}
	err = s.gameRepo.CreateCatalog(ctx, game)
	if err == nil {
		return game, nil
	}
	if !isConflict(err) {
		return nil, err
	}

	// Another request created the row first.
	game, err = s.gameRepo.FindCatalog(ctx, in.IGDBID, platform)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, models.NewInternalError(nil)
	}
	return game, nil
}

// RemoveGame deletes the user's ownership of gameID and nothing else.
func (s *GameService) RemoveGame(ctx context.Context, userID uuid.UUID, gameID uint) error {
	n, err := s.gameRepo.RemoveOwnership(ctx, userID, gameID)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("Game not found in library")
	}
	return nil
}

// Library returns the user's games grouped by canonical platform.
func (s *GameService) Library(ctx context.Context, userID uuid.UUID) (map[string][]models.Game, int, error) {
	owned, err := s.gameRepo.Library(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	grouped := make(map[string][]models.Game)
	for _, ug := range owned {
		p := models.CanonicalPlatform(ug.Game.Platform)
		grouped[p] = append(grouped[p], ug.Game)
	}
	return grouped, len(owned), nil
}

// Ownerships returns ownership rows for userID and each of friendIDs.
func (s *GameService) Ownerships(ctx context.Context, userID uuid.UUID, friendIDs []uuid.UUID) ([]models.Ownership, error) {
	ids := []uuid.UUID{userID}
	seen := map[uuid.UUID]struct{}{userID: {}}
	for _, id := range friendIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return s.gameRepo.Ownerships(ctx, ids)
}

// Dashboard joins the user's library with their friend list, annotating each
// game with the friends who own the same catalog row.
func (s *GameService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	var (
		owned   []models.UserGame
		friends []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = s.gameRepo.Library(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		friends, err = s.friendRepo.ListFriends(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	gameIDs := make([]uint, 0, len(owned))
	for _, ug := range owned {
		gameIDs = append(gameIDs, ug.GameID)
	}
	friendIDs := make([]uuid.UUID, 0, len(friends))
	byID := make(map[uuid.UUID]models.User, len(friends))
	summaries := make([]models.FriendSummary, 0, len(friends))
	for _, f := range friends {
		friendIDs = append(friendIDs, f.ID)
		byID[f.ID] = f
		summaries = append(summaries, models.SummarizeUser(f, true))
	}

	rows, err := s.gameRepo.OwnersOf(ctx, gameIDs, friendIDs)
	if err != nil {
		return nil, err
	}
	owners := make(map[uint][]FriendOwner)
	for _, row := range rows {
		f := byID[row.UserID]
		owners[row.GameID] = append(owners[row.GameID], FriendOwner{
			ID:       f.ID,
			Username: f.DisplayName(),
			Avatar:   f.AvatarURL(),
		})
	}

	grouped := make(map[string][]DashboardGame)
	for _, ug := range owned {
		p := models.CanonicalPlatform(ug.Game.Platform)
		fo := owners[ug.GameID]
		if fo == nil {
			fo = []FriendOwner{}
		}
		grouped[p] = append(grouped[p], DashboardGame{
			ID:           ug.Game.ID,
			IGDBID:       ug.Game.IGDBID,
			Name:         ug.Game.Name,
			Cover:        ug.Game.Cover,
			ReleaseDate:  ug.Game.ReleaseDate,
			FriendOwners: fo,
		})
	}

	out := &Dashboard{Platforms: []DashboardPlatform{}, Friends: summaries}
	for _, p := range models.Platforms {
		if games, ok := grouped[p]; ok {
			out.Platforms = append(out.Platforms, DashboardPlatform{Platform: p, Games: games})
		}
	}
	return out, nil
}
