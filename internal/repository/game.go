package repository

import (
	"context"

	"playshelf/internal/models"
	"playshelf/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository defines persistence for the shared catalog and per-user ownership.
type GameRepository interface {
	FindCatalog(ctx context.Context, igdbID int64, platform string) (*models.Game, error)
	CreateCatalog(ctx context.Context, game *models.Game) error
	AddOwnership(ctx context.Context, ownership *models.UserGame) error
	RemoveOwnership(ctx context.Context, userID uuid.UUID, gameID uint) (int64, error)
	Library(ctx context.Context, userID uuid.UUID) ([]models.UserGame, error)
	Ownerships(ctx context.Context, userIDs []uuid.UUID) ([]models.Ownership, error)
	OwnersOf(ctx context.Context, gameIDs []uint, userIDs []uuid.UUID) ([]models.UserGame, error)
}

type gameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates and returns a new GameRepository instance.
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

// FindCatalog returns (nil, nil) when the (igdb_id, platform) row does not exist.
// It always reads the primary so a row created moments ago is visible.
func (r *gameRepository) FindCatalog(ctx context.Context, igdbID int64, platform string) (*models.Game, error) {
	defer observability.TrackQuery("select", "games")()

	var game models.Game
	err := r.db.WithContext(ctx).
		Where("igdb_id = ? AND platform = ?", igdbID, platform).
		First(&game).Error
	return notFoundAsNil(&game, err)
}

// CreateCatalog inserts a catalog row. A duplicate (igdb_id, platform) is a CONFLICT error.
func (r *gameRepository) CreateCatalog(ctx context.Context, game *models.Game) error {
	defer observability.TrackQuery("insert", "games")()

	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return models.NewConflictError("Game already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// AddOwnership inserts a user_games row. A duplicate pair is a CONFLICT error.
func (r *gameRepository) AddOwnership(ctx context.Context, ownership *models.UserGame) error {
	defer observability.TrackQuery("insert", "user_games")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(ownership).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return models.NewConflictError("Game already owned")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// RemoveOwnership deletes the single (userID, gameID) ownership row and
// returns how many rows went away. Catalog rows are never touched.
func (r *gameRepository) RemoveOwnership(ctx context.Context, userID uuid.UUID, gameID uint) (int64, error) {
	defer observability.TrackQuery("delete", "user_games")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&models.UserGame{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// Library returns userID's ownership rows with the catalog row preloaded.
func (r *gameRepository) Library(ctx context.Context, userID uuid.UUID) ([]models.UserGame, error) {
	defer observability.TrackQuery("select", "user_games")()

	var owned []models.UserGame
	if err := readDB(r.db).WithContext(ctx).
		Joins("Game").
		Where("user_games.user_id = ?", userID).
		Order(`"Game"."name" ASC`).
		Find(&owned).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return owned, nil
}

func (r *gameRepository) Ownerships(ctx context.Context, userIDs []uuid.UUID) ([]models.Ownership, error) {
	out := []models.Ownership{}
	if len(userIDs) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("select", "user_games")()

	var rows []models.UserGame
	if err := readDB(r.db).WithContext(ctx).
		Select("user_id", "game_id").
		Where("user_id IN ?", userIDs).
		Order("user_id, game_id").
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out = append(out, models.Ownership{GameID: row.GameID, UserID: row.UserID, OwnedByUser: true})
	}
	return out, nil
}

// OwnersOf returns the ownership rows of userIDs for the given catalog rows.
func (r *gameRepository) OwnersOf(ctx context.Context, gameIDs []uint, userIDs []uuid.UUID) ([]models.UserGame, error) {
	if len(gameIDs) == 0 || len(userIDs) == 0 {
		return []models.UserGame{}, nil
	}
	defer observability.TrackQuery("select", "user_games")()

	var rows []models.UserGame
	if err := readDB(r.db).WithContext(ctx).
		Select("user_id", "game_id").
		Where("game_id IN ? AND user_id IN ?", gameIDs, userIDs).
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
