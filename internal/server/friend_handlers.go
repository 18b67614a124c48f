package server

import (
	"github.com/gofiber/fiber/v2"
)

// AddFriendRequest is the body of POST /api/friends.
type AddFriendRequest struct {
	FriendID string `json:"friendId" validate:"required,uuid"`
}

const alreadyFriendsMessage = "You're already friends with this user!"

// GetFriends handles GET /api/friends[?userId=]
// @Summary List friends
// @Description Outgoing friend edges of the requester, or of userId when given
// @Tags friends
// @Produce json
// @Param userId query string false "User UUID"
// @Success 200 {object} map[string][]models.FriendSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	ownerID := currentUserID(c)
	if raw := c.Query("userId"); raw != "" {
		id, err := s.parseUUID(c, raw, "userId")
		if err != nil {
			return nil
		}
		ownerID = id
	}

	friends, err := s.friendService.ListFriends(c.UserContext(), ownerID)
	if err != nil {
		return s.respondError(c, err, "Failed to fetch friends")
	}
	return c.JSON(fiber.Map{"friends": friends})
}

// AddFriend handles POST /api/friends
// @Summary Add a friend
// @Description Creates the directed edge requester -> friendId. A duplicate is a 200 soft notice.
// @Tags friends
// @Accept json
// @Produce json
// @Param body body AddFriendRequest true "Friend to add"
// @Success 201 {object} map[string]interface{}
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/friends [post]
func (s *Server) AddFriend(c *fiber.Ctx) error {
	var req AddFriendRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	friendID, err := s.parseUUID(c, req.FriendID, "friendId")
	if err != nil {
		return nil
	}

	res, err := s.friendService.AddFriend(c.UserContext(), currentUserID(c), friendID)
	if err != nil {
		return s.respondError(c, err, "Failed to add friend")
	}
	if res.AlreadyFriends {
		return c.JSON(fiber.Map{
			"success":        false,
			"alreadyFriends": true,
			"message":        alreadyFriendsMessage,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"friend":  res.Friend,
	})
}
