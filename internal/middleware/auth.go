package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/token"
	"github.com/gofiber/fiber/v2"
)

const bearerPrefix = "Bearer "

var errInactivePrincipal = errors.New("principal is disabled or locked")

// PrincipalLookup resolves a token subject to a stored principal.
type PrincipalLookup interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticate attaches the principal behind a valid bearer access token to
// the request. Any failure leaves the request anonymous; access control is
// left to RequireAuth and AdminRequired.
func Authenticate(codec *token.Codec, principals PrincipalLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return c.Next()
		}

		user, err := resolvePrincipal(c.UserContext(), codec, principals, strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			slog.Warn("bearer token rejected",
				"error", err,
				"method", c.Method(),
				"path", c.Path(),
				"trace_id", requestID(c),
			)
			return c.Next()
		}

		c.Locals(principalKey, user)
		return c.Next()
	}
}

func resolvePrincipal(ctx context.Context, codec *token.Codec, principals PrincipalLookup, raw string) (user *models.User, err error) {
	defer func() {
		if r := recover(); r != nil {
			user, err = nil, fmt.Errorf("panic while resolving principal: %v", r)
		}
	}()

	claims, err := codec.ParseClaims(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind != token.KindAccess {
		return nil, fmt.Errorf("token kind %q is not an access token", claims.Kind)
	}

	user, err = principals.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject %q: %w", claims.Subject, err)
	}
	if user.Username != claims.Subject || (claims.UserID != "" && claims.UserID != user.ID.String()) {
		return nil, fmt.Errorf("token subject %q does not match principal", claims.Subject)
	}
	if !user.IsActive() {
		return nil, errInactivePrincipal
	}
	return user, nil
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: authentication required",
			})
		}
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
