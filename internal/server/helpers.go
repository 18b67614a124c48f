package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"playshelf/internal/middleware"
	"playshelf/internal/models"
	"playshelf/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// currentUserID returns the user AuthRequired stored in locals.
func currentUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("userID").(uuid.UUID)
	return id
}

// currentSession returns the parsed session claims AuthRequired stored in locals.
func currentSession(c *fiber.Ctx) middleware.SessionClaims {
	sc, _ := c.Locals("session").(middleware.SessionClaims)
	return sc
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseUUID parses raw as a UUID, writing a 400 named after param on failure.
func (s *Server) parseUUID(c *fiber.Ctx, raw, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

// parseBody decodes and validates a JSON body into dest, writing a 400 on failure.
func (s *Server) parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if err := validation.Struct(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
		return errResponseWritten
	}
	return nil
}

// respondError maps err to a status and writes it. Causes are logged, never
// echoed: anything that is not an AppError with its own message is shown as
// fallback.
func (s *Server) respondError(c *fiber.Ctx, err error, fallback string) error {
	status := models.StatusForError(err)

	var appErr *models.AppError
	if !errors.As(err, &appErr) || (appErr.Code == models.CodeInternal && appErr.Message == models.InternalErrorMessage) {
		appErr = models.NewInternalError(err).WithMessage(fallback)
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, appErr)
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "friendIds" -> "friend IDs".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	for _, suffix := range []string{"Ids", "Id"} {
		if strings.HasSuffix(param, suffix) {
			prefix := param[:len(param)-len(suffix)]
			label := " ID"
			if suffix == "Ids" {
				label = " IDs"
			}
			return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + label
		}
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// setCookie writes an HttpOnly cookie scoped to the whole site.
func (s *Server) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// clearCookie expires name immediately.
func (s *Server) clearCookie(c *fiber.Ctx, name string) {
	s.setCookie(c, name, "", time.Unix(0, 0))
}
