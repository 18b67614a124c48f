package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"playshelf/internal/cache"
	"playshelf/internal/crypto"
	"playshelf/internal/discord"
	"playshelf/internal/models"
	"playshelf/internal/observability"
	"playshelf/internal/repository"
	"playshelf/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DiscordAPI is the subset of the Discord client the services call.
type DiscordAPI interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	CurrentUser(ctx context.Context, accessToken string) (*discord.Profile, error)
	UserByID(ctx context.Context, discordID string) (*discord.Profile, error)
	Friends(ctx context.Context, accessToken string) ([]discord.Profile, error)
	HasBotToken() bool
}

// DiscordUserView is the response of a Discord user lookup.
type DiscordUserView struct {
	ID        uuid.UUID `json:"id"`
	DiscordID string    `json:"discord_id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
}

// ConnectionStatus describes the signed-in user's cached Discord profile.
type ConnectionStatus struct {
	Connected bool    `json:"connected"`
	Username  *string `json:"username"`
	Avatar    *string `json:"avatar"`
	DiscordID *string `json:"discordId"`
}

// RefreshedProfile is returned after a profile is re-fetched from Discord.
type RefreshedProfile struct {
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

// DiscordService implements Discord search, lookup and profile maintenance.
type DiscordService struct {
	connRepo   repository.DiscordConnectionRepository
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	client     DiscordAPI
	cipher     *crypto.TokenCipher
}

// NewDiscordService returns a new DiscordService.
func NewDiscordService(
	connRepo repository.DiscordConnectionRepository,
	userRepo repository.UserRepository,
	friendRepo repository.FriendRepository,
	client DiscordAPI,
	cipher *crypto.TokenCipher,
) *DiscordService {
	return &DiscordService{
		connRepo:   connRepo,
		userRepo:   userRepo,
		friendRepo: friendRepo,
		client:     client,
		cipher:     cipher,
	}
}

// Search finds users by snowflake or username and marks the ones the
// requester already has an edge to.
func (s *DiscordService) Search(ctx context.Context, requester uuid.UUID, query string, includeSelf bool) ([]models.FriendSummary, error) {
	query = validation.NormalizeSearchQuery(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}

	users, err := s.connRepo.SearchUsers(ctx, repository.UserSearch{
		Query:       query,
		Requester:   requester,
		IncludeSelf: includeSelf,
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(users))
	unique := make([]models.User, 0, len(users))
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		unique = append(unique, u)
		ids = append(ids, u.ID)
	}

	connected, err := s.friendRepo.ConnectedTo(ctx, requester, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.FriendSummary, 0, len(unique))
	for _, u := range unique {
		out = append(out, models.SummarizeUser(u, connected[u.ID]))
	}
	return out, nil
}

// LookupUser resolves a registered user by snowflake and returns their live
// Discord profile, fetched with the bot token and cached briefly.
func (s *DiscordService) LookupUser(ctx context.Context, discordID string) (*DiscordUserView, error) {
	if discordID == "" {
		return nil, models.NewValidationError("Discord ID is required")
	}
	if err := validation.ValidateDiscordID(discordID); err != nil {
		return nil, models.NewValidationError("Discord ID must be numeric")
	}

	user, err := s.userRepo.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User not found in database")
	}
	if !s.client.HasBotToken() {
		return nil, models.NewInternalError(discord.ErrNoBotToken).WithMessage("Discord bot token not configured")
	}

	var profile discord.Profile
	err = cache.Aside(ctx, cache.DiscordUserKey(discordID), &profile, cache.DiscordUserTTL, func() error {
		p, err := s.client.UserByID(ctx, discordID)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, models.NewUpstreamError("Failed to fetch Discord user", err)
	}

	return &DiscordUserView{
		ID:        user.ID,
		DiscordID: discordID,
		Username:  usernameOrUnknown(profile.DisplayName()),
		Avatar:    discord.AvatarURL(discordID, profile.Avatar),
	}, nil
}

// ManualConnect re-fetches the user's Discord profile with the bot token and
// rewrites the cached connection.
func (s *DiscordService) ManualConnect(ctx context.Context, userID uuid.UUID) (*RefreshedProfile, error) {
	discordID, err := s.linkedDiscordID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.client.UserByID(ctx, discordID)
	if err != nil {
		return nil, discordFetchError(err)
	}
	return s.storeProfile(ctx, userID, discordID, profile)
}

// UpdateProfile re-fetches the profile with the user's own token when one is
// stored, falling back to the bot token.
func (s *DiscordService) UpdateProfile(ctx context.Context, userID uuid.UUID) (*RefreshedProfile, error) {
	discordID, err := s.linkedDiscordID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var profile *discord.Profile
	if access := s.accessToken(ctx, userID); access != "" {
		profile, err = s.client.CurrentUser(ctx, access)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "user token profile fetch failed, using bot",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
			profile = nil
		}
	}
	if profile == nil {
		profile, err = s.client.UserByID(ctx, discordID)
		if err != nil {
			return nil, discordFetchError(err)
		}
	}
	return s.storeProfile(ctx, userID, discordID, profile)
}

// Refresh swaps the stored refresh token for a new token pair and returns the
// new expiry.
func (s *DiscordService) Refresh(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	conn, err := s.connRepo.GetByUserID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if conn == nil {
		return time.Time{}, models.NewValidationError("No refresh token found")
	}
	refresh, err := s.cipher.DecryptPtr(conn.RefreshToken)
	if err != nil || refresh == "" {
		return time.Time{}, models.NewValidationError("No refresh token found")
	}

	tok, err := s.client.Refresh(ctx, refresh)
	if err != nil {
		return time.Time{}, models.NewUpstreamError("Failed to refresh token", err)
	}

	access, err := s.cipher.EncryptPtr(tok.AccessToken)
	if err != nil {
		return time.Time{}, models.NewInternalError(err).WithMessage("Failed to refresh token")
	}
	newRefresh, err := s.cipher.EncryptPtr(tok.RefreshToken)
	if err != nil {
		return time.Time{}, models.NewInternalError(err).WithMessage("Failed to refresh token")
	}

	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry.UTC()
		expiresAt = &e
	}
	if err := s.connRepo.UpdateTokens(ctx, userID, access, newRefresh, expiresAt); err != nil {
		return time.Time{}, models.NewInternalError(err).WithMessage("Failed to refresh token")
	}
	if expiresAt == nil {
		return time.Time{}, nil
	}
	return *expiresAt, nil
}

// Status reports the cached connection for userID.
func (s *DiscordService) Status(ctx context.Context, userID uuid.UUID) (*ConnectionStatus, error) {
	conn, err := s.connRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return &ConnectionStatus{}, nil
	}
	username := usernameOrUnknown(conn.DiscordUsername)
	discordID := conn.DiscordID
	return &ConnectionStatus{
		Connected: true,
		Username:  &username,
		Avatar:    conn.DiscordAvatar,
		DiscordID: &discordID,
	}, nil
}

// DiscordFriends lists the requester's Discord friends who are registered here.
func (s *DiscordService) DiscordFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error) {
	access := s.accessToken(ctx, userID)
	if access == "" {
		return nil, models.NewValidationError("Discord not connected")
	}

	profiles, err := s.client.Friends(ctx, access)
	if err != nil {
		return nil, models.NewUpstreamError("Failed to fetch Discord friends", err)
	}
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}

	users, err := s.userRepo.ListByDiscordIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	userIDs := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}
	connected, err := s.friendRepo.ConnectedTo(ctx, userID, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.FriendSummary, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		out = append(out, models.SummarizeUser(u, connected[u.ID]))
	}
	return out, nil
}

func (s *DiscordService) linkedDiscordID(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.DiscordID != nil && *user.DiscordID != "" {
		return *user.DiscordID, nil
	}
	if user.DiscordConnection != nil && user.DiscordConnection.DiscordID != "" {
		return user.DiscordConnection.DiscordID, nil
	}
	return "", models.NewValidationError("No Discord ID found for user")
}

// accessToken returns the decrypted stored access token, or "" when none is usable.
func (s *DiscordService) accessToken(ctx context.Context, userID uuid.UUID) string {
	conn, err := s.connRepo.GetByUserID(ctx, userID)
	if err != nil || conn == nil || !conn.HasTokens() {
		return ""
	}
	access, err := s.cipher.DecryptPtr(conn.AccessToken)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "stored discord token unreadable",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return access
}

func (s *DiscordService) storeProfile(ctx context.Context, userID uuid.UUID, discordID string, profile *discord.Profile) (*RefreshedProfile, error) {
	avatar := discord.AvatarURL(discordID, profile.Avatar)
	username := usernameOrUnknown(profile.DisplayName())

	conn, err := s.connRepo.Upsert(ctx, userID, repository.LinkedIdentity{
		DiscordID: discordID,
		Username:  username,
		Avatar:    &avatar,
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateDiscordUser(ctx, discordID)

	return &RefreshedProfile{Username: conn.DiscordUsername, Avatar: conn.DiscordAvatar}, nil
}

func discordFetchError(err error) error {
	if errors.Is(err, discord.ErrNoBotToken) {
		return models.NewInternalError(err).WithMessage("Discord bot token not configured")
	}
	return models.NewUpstreamError("Failed to fetch Discord user", err)
}

func usernameOrUnknown(name string) string {
	if name == "" {
		return models.UnknownUsername
	}
	return name
}
