package server

import (
	"log/slog"
	"net/url"
	"time"

	"playshelf/internal/cache"
	"playshelf/internal/middleware"
	"playshelf/internal/observability"
	"playshelf/internal/service"

	"github.com/gofiber/fiber/v2"
)

const oauthStateCookie = "oauth_state"

// DiscordLogin starts the OAuth flow.
// @Summary Start Discord login
// @Description Redirects to the Discord consent page with a fresh state value
// @Tags auth
// @Success 302
// @Router /auth/discord/login [get]
func (s *Server) DiscordLogin(c *fiber.Ctx) error {
	authURL, state := s.authService.BeginLogin(c.UserContext())
	s.setCookie(c, oauthStateCookie, state, time.Now().Add(cache.OAuthStateTTL))
	return c.Redirect(authURL, fiber.StatusFound)
}

// AuthCallback completes the OAuth flow.
// @Summary Discord OAuth callback
// @Description Exchanges the code, reconciles the Discord identity and sets the session cookie. Failures redirect to /login?error=<code>.
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "OAuth state"
// @Success 302
// @Router /auth/callback [get]
func (s *Server) AuthCallback(c *fiber.Ctx) error {
	ctx := c.UserContext()
	expectedState := c.Cookies(oauthStateCookie)
	s.clearCookie(c, oauthStateCookie)

	user, err := s.authService.CompleteLogin(ctx, c.Query("code"), c.Query("state"), expectedState)
	if err != nil {
		return s.loginFailed(c, err)
	}

	token, claims, err := middleware.IssueSessionToken(s.config.JWTSecret, user.ID, s.config.SessionTTL())
	if err != nil {
		return s.loginFailed(c, err)
	}
	s.setCookie(c, middleware.SessionCookie, token, claims.ExpiresAt)

	observability.LoginOutcomes.WithLabelValues("ok").Inc()
	middleware.Logger.InfoContext(ctx, "discord login succeeded", slog.String("user_id", user.ID.String()))
	return c.Redirect(s.config.FrontendURL+"/", fiber.StatusFound)
}

func (s *Server) loginFailed(c *fiber.Ctx, err error) error {
	code := service.LoginErrorCode(err)
	observability.LoginOutcomes.WithLabelValues(code).Inc()
	middleware.Logger.WarnContext(c.UserContext(), "discord login failed",
		slog.String("code", code),
		slog.String("error", err.Error()),
	)
	return c.Redirect(s.config.FrontendURL+"/login?error="+url.QueryEscape(code), fiber.StatusFound)
}

// Logout revokes the current session token and clears the cookie.
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	sc := currentSession(c)
	if err := s.authService.Logout(c.UserContext(), sc.JTI, sc.ExpiresAt); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session token",
			slog.String("error", err.Error()),
		)
	}
	s.clearCookie(c, middleware.SessionCookie)
	return c.JSON(fiber.Map{"success": true})
}
