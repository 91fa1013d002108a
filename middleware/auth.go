package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lac-hong-legacy/devscope/shared"
)

var (
	ErrMissingAuthorization = errors.New("authorization header is missing")
	ErrInvalidAuthorization = errors.New("invalid authorization header format")
)

// BearerToken extracts the token from an "Authorization: Bearer ..." value.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", ErrInvalidAuthorization
	}

	token := strings.TrimSpace(authHeader[7:])
	if token == "" {
		return "", ErrInvalidAuthorization
	}
	return token, nil
}

// UserID returns the authenticated user id, or "" for guests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(shared.UserID).(string)
	return id
}
