package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	resp, err := h.authService.Register(c.UserContext(), &req, clientInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "register failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	resp, err := h.authService.Login(c.UserContext(), &req, clientInfo(c))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "login failed", err)
	}

	return c.JSON(resp)
}

// Refresh answers 400 for every token problem so that clients treat it as a
// request to log in again rather than a transient auth failure.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	resp, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrTokenExpiredOrRevoked) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, "refresh failed", err)
	}

	return c.JSON(resp)
}

// Logout is best effort: storage failures are logged, the client still
// gets 204 and discards its tokens.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	if err := h.authService.Logout(c.UserContext(), req.RefreshToken); err != nil {
		slog.Error("logout failed", "error", err, "trace_id", traceID(c))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.authService.LogoutAllDevices(c.UserContext(), user.ID); err != nil {
		return internalError(c, "logout all failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.authService.ListSessions(c.UserContext(), user.ID)
	if err != nil {
		return internalError(c, "list sessions failed", err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// clientInfo prefers the first X-Forwarded-For hop over the socket address.
func clientInfo(c *fiber.Ctx) services.ClientInfo {
	ip := c.IP()
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			ip = first
		}
	}
	return services.ClientInfo{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IPAddress: ip,
	}
}
