package repository

import (
	"context"
	"errors"

	"playshelf/internal/models"
	"playshelf/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	ListByDiscordIDs(ctx context.Context, discordIDs []string) ([]models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID loads a user with its Discord connection. A missing user is a NOT_FOUND error.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := readDB(r.db).WithContext(ctx).
		Preload("DiscordConnection").
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByDiscordID returns (nil, nil) when no user is linked to discordID.
func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	err := readDB(r.db).WithContext(ctx).
		Preload("DiscordConnection").
		Where("discord_id = ?", discordID).
		First(&user).Error
	return notFoundAsNil(&user, err)
}

// ListByDiscordIDs matches on users.discord_id or the cached connection's discord_id.
func (r *userRepository) ListByDiscordIDs(ctx context.Context, discordIDs []string) ([]models.User, error) {
	if len(discordIDs) == 0 {
		return []models.User{}, nil
	}
	defer observability.TrackQuery("select", "users")()

	var users []models.User
	if err := readDB(r.db).WithContext(ctx).
		Distinct("users.*").
		Joins("LEFT JOIN discord_connections dc ON dc.user_id = users.id").
		Where("users.discord_id IN ? OR dc.discord_id IN ?", discordIDs, discordIDs).
		Preload("DiscordConnection").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observability.TrackQuery("select", "users")()

	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts a user without touching its Discord connection.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()

	if err := r.db.WithContext(ctx).Omit("DiscordConnection").Create(user).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}
