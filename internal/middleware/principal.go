package middleware

import (
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const principalKey = "principal"

// CurrentUser returns the principal attached by Authenticate.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(principalKey).(*models.User)
	return user, ok && user != nil
}

// CurrentUserID returns uuid.Nil for anonymous requests.
func CurrentUserID(c *fiber.Ctx) uuid.UUID {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return uuid.Nil
}
