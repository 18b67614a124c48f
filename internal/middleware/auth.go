// Package middleware provides request-scoped middleware: session parsing,
// structured logging, rate limiting, metrics and tracing.
package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionCookie is the cookie the OAuth callback stores the session token in.
	SessionCookie = "session"
	// TokenIssuer is the "iss" claim of session tokens.
	TokenIssuer = "playshelf-api"
	// TokenAudience is the "aud" claim of session tokens.
	TokenAudience = "playshelf-client"
)

// ErrNotAuthenticated is returned for any missing or unusable session.
var ErrNotAuthenticated = errors.New("Not authenticated")

// SessionClaims are the fields AuthRequired needs from a session token.
type SessionClaims struct {
	UserID    uuid.UUID
	JTI       string
	ExpiresAt time.Time
}

// IssueSessionToken signs an HS256 session token for userID.
func IssueSessionToken(secret string, userID uuid.UUID, ttl time.Duration) (string, SessionClaims, error) {
	if secret == "" {
		return "", SessionClaims{}, fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	sc := SessionClaims{
		UserID:    userID,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": sc.ExpiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": sc.JTI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", SessionClaims{}, err
	}
	return signed, sc, nil
}

// ParseSessionToken validates signature, expiry, issuer and audience and
// returns the session claims.
func ParseSessionToken(secret, tokenString string) (SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return SessionClaims{}, ErrNotAuthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrNotAuthenticated
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return SessionClaims{}, ErrNotAuthenticated
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return SessionClaims{}, ErrNotAuthenticated
	}

	sc := SessionClaims{UserID: userID}
	sc.JTI, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sc.ExpiresAt = exp.Time
	}
	return sc, nil
}

// ExtractSessionToken reads the token from "Authorization: Bearer" or the
// session cookie, in that order.
func ExtractSessionToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}

// NotAuthenticated writes the fixed 401 body every protected route returns.
func NotAuthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": ErrNotAuthenticated.Error(),
	})
}
