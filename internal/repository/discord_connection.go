package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"playshelf/internal/models"
	"playshelf/internal/observability"
	"playshelf/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxSearchResults caps user search responses.
const MaxSearchResults = 20

// ErrUserResolution marks a reconcile failure while finding or creating the user row.
var ErrUserResolution = errors.New("could not find or create user")

// LinkedIdentity is a Discord account being attached to an application user.
// Nil token fields leave any stored tokens untouched.
type LinkedIdentity struct {
	DiscordID    string
	Username     string
	Avatar       *string
	AccessToken  *string
	RefreshToken *string
	ExpiresAt    *time.Time
}

func (l LinkedIdentity) connection(userID uuid.UUID) *models.DiscordConnection {
	return &models.DiscordConnection{
		UserID:          userID,
		DiscordID:       l.DiscordID,
		DiscordUsername: l.Username,
		DiscordAvatar:   l.Avatar,
		AccessToken:     l.AccessToken,
		RefreshToken:    l.RefreshToken,
		TokenExpiresAt:  l.ExpiresAt,
	}
}

// UserSearch describes a Discord user search. A numeric query matches
// snowflakes exactly; anything else is a case-insensitive username substring.
type UserSearch struct {
	Query       string
	Requester   uuid.UUID
	IncludeSelf bool
}

// DiscordConnectionRepository owns discord_connections and its user_profiles projection.
type DiscordConnectionRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.DiscordConnection, error)
	Reconcile(ctx context.Context, identity LinkedIdentity) (*models.User, error)
	Upsert(ctx context.Context, userID uuid.UUID, identity LinkedIdentity) (*models.DiscordConnection, error)
	UpdateTokens(ctx context.Context, userID uuid.UUID, access, refresh *string, expiresAt *time.Time) error
	SearchUsers(ctx context.Context, params UserSearch) ([]models.User, error)
}

type discordConnectionRepository struct {
	db *gorm.DB
}

// NewDiscordConnectionRepository returns a new DiscordConnectionRepository implementation.
func NewDiscordConnectionRepository(db *gorm.DB) DiscordConnectionRepository {
	return &discordConnectionRepository{db: db}
}

// GetByUserID returns (nil, nil) when the user has no connection.
func (r *discordConnectionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.DiscordConnection, error) {
	defer observability.TrackQuery("select", "discord_connections")()

	var conn models.DiscordConnection
	err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&conn).Error
	return notFoundAsNil(&conn, err)
}

// Reconcile links a Discord identity to a user in one transaction: it finds
// the user by Discord ID (creating one if needed), stores the ID on the user,
// then upserts the connection and rewrites the profile projection.
func (r *discordConnectionRepository) Reconcile(ctx context.Context, identity LinkedIdentity) (*models.User, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Reconcile", "discord_connections")
	defer span.End()
	defer observability.TrackQuery("reconcile", "discord_connections")()

	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findUserForDiscordID(tx, identity.DiscordID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUserResolution, err)
		}
		if found == nil {
			discordID := identity.DiscordID
			found = &models.User{DiscordID: &discordID}
			if err := tx.Omit(clause.Associations).Create(found).Error; err != nil {
				return fmt.Errorf("%w: %w", ErrUserResolution, err)
			}
		}
		user = *found

		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("discord_id", identity.DiscordID).Error; err != nil {
			return fmt.Errorf("set discord id: %w", err)
		}

		conn, err := upsertConnection(tx, identity.connection(user.ID))
		if err != nil {
			return err
		}
		discordID := identity.DiscordID
		user.DiscordID = &discordID
		user.DiscordConnection = conn
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrUserResolution) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Upsert writes the connection for userID and syncs user_profiles.
func (r *discordConnectionRepository) Upsert(ctx context.Context, userID uuid.UUID, identity LinkedIdentity) (*models.DiscordConnection, error) {
	defer observability.TrackQuery("upsert", "discord_connections")()

	var conn *models.DiscordConnection
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		conn, err = upsertConnection(tx, identity.connection(userID))
		return err
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conn, nil
}

func (r *discordConnectionRepository) UpdateTokens(ctx context.Context, userID uuid.UUID, access, refresh *string, expiresAt *time.Time) error {
	defer observability.TrackQuery("update", "discord_connections")()

	updates := map[string]any{
		"access_token":     access,
		"token_expires_at": expiresAt,
		"updated_at":       time.Now(),
	}
	if refresh != nil {
		updates["refresh_token"] = refresh
	}
	res := r.db.WithContext(ctx).
		Model(&models.DiscordConnection{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Discord connection not found")
	}
	return nil
}

// SearchUsers runs the Discord user search. Results are ordered by username
// and capped at MaxSearchResults.
func (r *discordConnectionRepository) SearchUsers(ctx context.Context, params UserSearch) ([]models.User, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "SearchUsers", "discord_connections")
	defer span.End()
	defer observability.TrackQuery("search", "discord_connections")()

	q := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("LEFT JOIN discord_connections dc ON dc.user_id = users.id")

	exact := validation.IsSnowflake(params.Query)
	span.SetAttributes(attribute.Bool("search.exact", exact))
	if exact {
		q = q.Where("dc.discord_id = ? OR users.discord_id = ?", params.Query, params.Query)
	} else {
		pattern := "%" + validation.EscapeLike(strings.ToLower(params.Query)) + "%"
		q = q.Where(`LOWER(dc.discord_username) LIKE ? ESCAPE '\'`, pattern)
	}
	if !params.IncludeSelf && params.Requester != uuid.Nil {
		q = q.Where("users.id <> ?", params.Requester)
	}

	var users []models.User
	if err := q.Order("dc.discord_username ASC").
		Order("users.id ASC").
		Limit(MaxSearchResults).
		Preload("DiscordConnection").
		Find(&users).Error; err != nil {
		span.RecordError(err)
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func findUserForDiscordID(tx *gorm.DB, discordID string) (*models.User, error) {
	var user models.User
	err := tx.Where("discord_id = ?", discordID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Older rows may carry the snowflake only on the connection.
	err = tx.Joins("JOIN discord_connections dc ON dc.user_id = users.id").
		Where("dc.discord_id = ?", discordID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func upsertConnection(tx *gorm.DB, conn *models.DiscordConnection) (*models.DiscordConnection, error) {
	now := time.Now()
	conn.UpdatedAt = now

	columns := []string{"discord_id", "discord_username", "discord_avatar", "updated_at"}
	if conn.AccessToken != nil {
		columns = append(columns, "access_token", "token_expires_at")
	}
	if conn.RefreshToken != nil {
		columns = append(columns, "refresh_token")
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(conn).Error; err != nil {
		return nil, fmt.Errorf("upsert discord connection: %w", err)
	}

	profile := models.ProfileFromConnection(conn)
	profile.UpdatedAt = now
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar_url", "updated_at"}),
	}).Create(profile).Error; err != nil {
		return nil, fmt.Errorf("sync user profile: %w", err)
	}

	var stored models.DiscordConnection
	if err := tx.Where("user_id = ?", conn.UserID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload discord connection: %w", err)
	}
	return &stored, nil
}
