package repository

import (
	"context"

	"playshelf/internal/models"
	"playshelf/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines persistence operations for directed friend edges.
type FriendRepository interface {
	Exists(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	Create(ctx context.Context, edge *models.FriendConnection) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.User, error)
	ConnectedTo(ctx context.Context, userID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error)
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Exists(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	defer observability.TrackQuery("select", "friend_connections")()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FriendConnection{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts an edge. A duplicate edge is a CONFLICT error.
func (r *friendRepository) Create(ctx context.Context, edge *models.FriendConnection) error {
	defer observability.TrackQuery("insert", "friend_connections")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(edge).Error; err != nil {
		if models.IsUniqueViolation(err) {
			return models.NewConflictError("Friend connection already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// ListFriends returns the targets of userID's outgoing edges, oldest first.
func (r *friendRepository) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	defer observability.TrackQuery("select", "friend_connections")()

	var users []models.User
	if err := readDB(r.db).WithContext(ctx).
		Joins("JOIN friend_connections fc ON fc.friend_id = users.id").
		Where("fc.user_id = ?", userID).
		Order("fc.created_at ASC").
		Order("fc.id ASC").
		Preload("DiscordConnection").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ConnectedTo reports which candidates userID has an outgoing edge to.
func (r *friendRepository) ConnectedTo(ctx context.Context, userID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("select", "friend_connections")()

	var ids []uuid.UUID
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.FriendConnection{}).
		Where("user_id = ? AND friend_id IN ?", userID, candidates).
		Pluck("friend_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
