package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SearchDiscordUsers handles GET /api/discord/search
// @Summary Search users by Discord ID or username
// @Description A numeric query matches a Discord ID exactly; anything else is a case-insensitive username substring. Capped at 20.
// @Tags discord
// @Produce json
// @Param query query string true "Discord ID or username fragment"
// @Param include_self query bool false "Include the requester"
// @Success 200 {object} map[string][]models.FriendSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/discord/search [get]
func (s *Server) SearchDiscordUsers(c *fiber.Ctx) error {
	users, err := s.discordService.Search(c.UserContext(), currentUserID(c), c.Query("query"), c.QueryBool("include_self", false))
	if err != nil {
		return s.respondError(c, err, "Failed to search Discord users")
	}
	return c.JSON(fiber.Map{"users": users})
}

// LookupDiscordUser handles GET /api/discord/user?id=
// @Summary Look up a registered user's live Discord profile
// @Tags discord
// @Produce json
// @Param id query string true "Discord ID"
// @Success 200 {object} service.DiscordUserView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/discord/user [get]
func (s *Server) LookupDiscordUser(c *fiber.Ctx) error {
	view, err := s.discordService.LookupUser(c.UserContext(), c.Query("id"))
	if err != nil {
		return s.respondError(c, err, "Failed to fetch Discord user")
	}
	return c.JSON(view)
}

// GetDiscordStatus handles GET /api/discord/status
func (s *Server) GetDiscordStatus(c *fiber.Ctx) error {
	status, err := s.discordService.Status(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to load Discord status")
	}
	return c.JSON(status)
}

// GetDiscordFriends handles GET /api/discord/friends
func (s *Server) GetDiscordFriends(c *fiber.Ctx) error {
	friends, err := s.discordService.DiscordFriends(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to fetch Discord friends")
	}
	return c.JSON(fiber.Map{"friends": friends})
}

// ManualConnect handles POST /api/discord/manual-connect
func (s *Server) ManualConnect(c *fiber.Ctx) error {
	profile, err := s.discordService.ManualConnect(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to connect Discord account")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"username": profile.Username,
		"avatar":   profile.Avatar,
	})
}

// UpdateDiscordProfile handles POST /api/discord/update-profile
func (s *Server) UpdateDiscordProfile(c *fiber.Ctx) error {
	profile, err := s.discordService.UpdateProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to update Discord profile")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"username": profile.Username,
		"avatar":   profile.Avatar,
	})
}

// RefreshDiscordToken handles POST /api/discord/refresh
// @Summary Refresh the stored Discord OAuth token
// @Tags discord
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/discord/refresh [post]
func (s *Server) RefreshDiscordToken(c *fiber.Ctx) error {
	expiresAt, err := s.discordService.Refresh(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to refresh token")
	}

	var expires *time.Time
	if !expiresAt.IsZero() {
		expires = &expiresAt
	}
	return c.JSON(fiber.Map{"success": true, "expiresAt": expires})
}
