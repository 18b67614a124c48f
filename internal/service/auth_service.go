package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"playshelf/internal/cache"
	"playshelf/internal/crypto"
	"playshelf/internal/discord"
	"playshelf/internal/models"
	"playshelf/internal/observability"
	"playshelf/internal/repository"

	"github.com/rs/xid"
)

// Login failure codes, sent back to the frontend as /login?error=<code>.
const (
	LoginErrNoCode       = "nocode"
	LoginErrAuth         = "auth"
	LoginErrDiscordAPI   = "discordapi"
	LoginErrDiscordFetch = "discordfetch"
	LoginErrNoDiscord    = "nodiscord"
	LoginErrNoUser       = "nouser"
	LoginErrGeneral      = "general"
)

// LoginError is a failed OAuth callback. Code selects the redirect; Err is only logged.
type LoginError struct {
	Code string
	Err  error
}

func (e *LoginError) Error() string {
	if e.Err == nil {
		return "login failed: " + e.Code
	}
	return fmt.Sprintf("login failed: %s: %v", e.Code, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

func loginError(code string, err error) *LoginError {
	return &LoginError{Code: code, Err: err}
}

// LoginErrorCode extracts the redirect code from err, defaulting to "general".
func LoginErrorCode(err error) string {
	var le *LoginError
	if errors.As(err, &le) {
		return le.Code
	}
	return LoginErrGeneral
}

// AuthService runs the Discord OAuth login flow.
type AuthService struct {
	connRepo repository.DiscordConnectionRepository
	client   DiscordAPI
	cipher   *crypto.TokenCipher
}

// NewAuthService returns a new AuthService.
func NewAuthService(connRepo repository.DiscordConnectionRepository, client DiscordAPI, cipher *crypto.TokenCipher) *AuthService {
	return &AuthService{connRepo: connRepo, client: client, cipher: cipher}
}

// BeginLogin returns the Discord consent URL and the state value the
// callback must echo back.
func (s *AuthService) BeginLogin(ctx context.Context) (authURL, state string) {
	state = xid.New().String()
	if err := cache.SetFlag(ctx, cache.OAuthStateKey(state), cache.OAuthStateTTL); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to store oauth state", slog.String("error", err.Error()))
	}
	return s.client.AuthCodeURL(state), state
}

// CompleteLogin validates the callback, fetches the Discord identity and
// reconciles it into the identity store. Errors are *LoginError.
func (s *AuthService) CompleteLogin(ctx context.Context, code, state, expectedState string) (*models.User, error) {
	if code == "" {
		return nil, loginError(LoginErrNoCode, nil)
	}
	if err := s.checkState(ctx, state, expectedState); err != nil {
		return nil, loginError(LoginErrAuth, err)
	}

	tok, err := s.client.Exchange(ctx, code)
	if err != nil {
		return nil, loginError(LoginErrAuth, err)
	}

	profile, err := s.client.CurrentUser(ctx, tok.AccessToken)
	if err != nil {
		if discord.IsAPIError(err) {
			return nil, loginError(LoginErrDiscordAPI, err)
		}
		return nil, loginError(LoginErrDiscordFetch, err)
	}
	if profile.ID == "" {
		return nil, loginError(LoginErrNoDiscord, errors.New("discord profile has no id"))
	}

	access, err := s.cipher.EncryptPtr(tok.AccessToken)
	if err != nil {
		return nil, loginError(LoginErrGeneral, err)
	}
	refresh, err := s.cipher.EncryptPtr(tok.RefreshToken)
	if err != nil {
		return nil, loginError(LoginErrGeneral, err)
	}
	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry.UTC()
		expiresAt = &e
	}

	avatar := profile.AvatarURL()
	user, err := s.connRepo.Reconcile(ctx, repository.LinkedIdentity{
		DiscordID:    profile.ID,
		Username:     usernameOrUnknown(profile.DisplayName()),
		Avatar:       &avatar,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserResolution) {
			return nil, loginError(LoginErrNoUser, err)
		}
		return nil, loginError(LoginErrGeneral, err)
	}
	cache.InvalidateDiscordUser(ctx, profile.ID)
	return user, nil
}

// Logout revokes a session token id until the token would have expired.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}
	return cache.SetFlag(ctx, cache.RevokedTokenKey(jti), ttl)
}

// checkState requires the callback state to match the cookie and, when Redis
// is reachable, to be a state this server issued and not yet consumed.
func (s *AuthService) checkState(ctx context.Context, state, expected string) error {
	if state == "" || expected == "" || state != expected {
		return errors.New("oauth state mismatch")
	}
	found, err := cache.Take(ctx, cache.OAuthStateKey(state))
	if err != nil {
		// Redis unavailable: the cookie match stands alone.
		return nil
	}
	if !found {
		return errors.New("oauth state unknown or already used")
	}
	return nil
}
