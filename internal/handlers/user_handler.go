package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Normalize()
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	updated, err := h.userService.UpdateProfile(c.UserContext(), user.ID, &req)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(dto.NewUserResponse(updated))
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	if err := h.userService.ChangePassword(c.UserContext(), user.ID, &req); err != nil {
		return h.userError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}

	user, err := h.userService.Get(c.UserContext(), id)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	users, total, err := h.userService.List(c.UserContext(), limit, offset)
	if err != nil {
		return internalError(c, "list users failed", err)
	}

	resp := dto.UserListResponse{
		Users:  make([]dto.UserResponse, 0, len(users)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(resp)
}

func (h *UserHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}

	var req dto.UserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	user, err := h.userService.SetStatus(c.UserContext(), id, &req)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":      user.ID,
		"enabled": user.Enabled,
		"locked":  user.Locked,
	})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		return h.userError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) userError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, services.ErrIncorrectPassword):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Fields: map[string]string{"currentPassword": err.Error()},
		})
	default:
		return internalError(c, "user request failed", err)
	}
}
