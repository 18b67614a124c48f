package server

import (
	"strings"

	"playshelf/internal/models"
	"playshelf/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const alreadyOwnedMessage = "You already have this game on this platform"

// SearchGames handles GET /api/igdb/search and GET /api/games?query=
// @Summary Search the IGDB catalog
// @Tags games
// @Produce json
// @Param query query string true "Title fragment"
// @Success 200 {object} igdb.SearchResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/igdb/search [get]
func (s *Server) SearchGames(c *fiber.Ctx) error {
	res, err := s.gameService.SearchCatalog(c.UserContext(), c.Query("query"))
	if err != nil {
		return s.respondError(c, err, "Failed to search games")
	}
	return c.JSON(res)
}

// GetLibrary handles GET /api/games/library
func (s *Server) GetLibrary(c *fiber.Ctx) error {
	library, total, err := s.gameService.Library(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to fetch library")
	}
	return c.JSON(fiber.Map{"library": library, "total": total})
}

// AddGame handles POST /api/games
// @Summary Add a game to the library
// @Description Finds or creates the (igdbId, platform) catalog row, then records ownership. A duplicate is a 200 soft notice.
// @Tags games
// @Accept json
// @Produce json
// @Param body body service.AddGameInput true "Game to add"
// @Success 201 {object} map[string]interface{}
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/games [post]
func (s *Server) AddGame(c *fiber.Ctx) error {
	var in service.AddGameInput
	if err := s.parseBody(c, &in); err != nil {
		return nil
	}

	res, err := s.gameService.AddGame(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return s.respondError(c, err, "Failed to add game")
	}
	if res.AlreadyOwned {
		return c.JSON(fiber.Map{
			"success":      false,
			"alreadyOwned": true,
			"message":      alreadyOwnedMessage,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"game":    res.Game,
	})
}

// RemoveGame handles DELETE /api/games/:id
// @Summary Remove a game from the library
// @Description Deletes only the requester's ownership row; the catalog row is kept.
// @Tags games
// @Produce json
// @Param id path int true "Catalog game ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} models.ErrorResponse
// @Router /api/games/{id} [delete]
func (s *Server) RemoveGame(c *fiber.Ctx) error {
	gameID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.gameService.RemoveGame(c.UserContext(), currentUserID(c), gameID); err != nil {
		return s.respondError(c, err, "Failed to remove game")
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetGameOwnership handles GET /api/game-ownership?userId=&friendIds=a,b
// @Summary Ownership rows for a user and their friends
// @Tags games
// @Produce json
// @Param userId query string true "User UUID"
// @Param friendIds query string false "Comma-separated friend UUIDs"
// @Success 200 {object} map[string][]models.Ownership
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/game-ownership [get]
func (s *Server) GetGameOwnership(c *fiber.Ctx) error {
	raw := c.Query("userId")
	if strings.TrimSpace(raw) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("User ID is required"))
	}
	userID, err := s.parseUUID(c, raw, "userId")
	if err != nil {
		return nil
	}

	var friendIDs []uuid.UUID
	for _, part := range strings.Split(c.Query("friendIds"), ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := s.parseUUID(c, part, "friendIds")
		if err != nil {
			return nil
		}
		friendIDs = append(friendIDs, id)
	}

	ownerships, err := s.gameService.Ownerships(c.UserContext(), userID, friendIDs)
	if err != nil {
		return s.respondError(c, err, "Failed to fetch game ownership data")
	}
	return c.JSON(fiber.Map{"ownerships": ownerships})
}

// GetDashboard handles GET /api/dashboard
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	dash, err := s.gameService.Dashboard(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err, "Failed to load dashboard")
	}
	return c.JSON(dash)
}
