package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMe returns the signed-in user, their Discord connection and the
// feature flags evaluated for them.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err, "Failed to load user")
	}

	return c.JSON(fiber.Map{
		"user":     user,
		"username": user.DisplayName(),
		"avatar":   user.AvatarURL(),
		"features": s.featureFlags.Snapshot(userID),
	})
}
