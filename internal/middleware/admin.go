package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// AdminPolicy decides who counts as an administrator: principals with the
// admin role and anyone whose email is listed in ADMIN_EMAILS.
type AdminPolicy struct {
	emails []string
}

func NewAdminPolicy(cfg *config.Config) *AdminPolicy {
	return &AdminPolicy{emails: parseCSV(strings.ToLower(cfg.AdminEmails))}
}

func (p *AdminPolicy) IsAdmin(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin() || contains(p.emails, strings.ToLower(user.Email))
}

// IsAdminRequest reports whether the current request is made by an admin.
func (p *AdminPolicy) IsAdminRequest(c *fiber.Ctx) bool {
	user, _ := CurrentUser(c)
	return p.IsAdmin(user)
}

// AdminRequired answers 401 for anonymous requests and 403 for non-admins.
func AdminRequired(policy *AdminPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: authentication required",
			})
		}
		if !policy.IsAdmin(user) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
