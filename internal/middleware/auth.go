package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/types"
	"gorm.io/gorm"
)

// UserIDKey is the fiber.Locals key holding the authenticated user id
const UserIDKey = "userID"

// RequireAuth validates the bearer access token and that its account is still live
func RequireAuth(issuer *services.TokenIssuer, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, issuer, db, "auth.token")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, issuer *services.TokenIssuer, db *gorm.DB, errorType string) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return types.Unauthorized("Bearer token not found", errorType)
	}

	userID, err := issuer.Verify(strings.TrimSpace(token), services.TokenAccess)
	if err != nil {
		return types.Unauthorized("Invalid token", errorType)
	}

	if _, err := services.GetUser(c.UserContext(), db, userID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return types.Unauthorized("Account no longer exists", errorType)
		}
		return err
	}

	// Set user id in context
	c.Locals(UserIDKey, userID)

	return c.Next()
}
