package reviews

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/moderation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	service *ReviewService
	admin   *middleware.AdminPolicy
}

func NewReviewHandler(service *ReviewService, admin *middleware.AdminPolicy) *ReviewHandler {
	return &ReviewHandler{service: service, admin: admin}
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	resp, err := h.service.List(c.UserContext(), limit, offset)
	if err != nil {
		return reviewError(c, err)
	}
	return c.JSON(resp)
}

func (h *ReviewHandler) ListByBook(c *fiber.Ctx) error {
	bookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	limit, offset := pagination(c)

	resp, err := h.service.ListByBook(c.UserContext(), bookID, limit, offset)
	if err != nil {
		return reviewError(c, err)
	}
	return c.JSON(resp)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	review, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return reviewError(c, err)
	}
	return c.JSON(NewReviewResponse(*review))
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	bookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	review, err := h.service.Create(c.UserContext(), middleware.CurrentUserID(c), bookID, req)
	if err != nil {
		return reviewError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(NewReviewResponse(*review))
}

func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	review, err := h.service.Update(c.UserContext(), id, middleware.CurrentUserID(c), h.admin.IsAdminRequest(c), req)
	if err != nil {
		return reviewError(c, err)
	}
	return c.JSON(NewReviewResponse(*review))
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.CurrentUserID(c), h.admin.IsAdminRequest(c)); err != nil {
		return reviewError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReviewHandler) Like(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	review, err := h.service.Like(c.UserContext(), id)
	if err != nil {
		return reviewError(c, err)
	}
	return c.JSON(NewReviewResponse(*review))
}

func reviewError(c *fiber.Ctx, err error) error {
	var rejected *moderation.Rejection
	switch {
	case errors.As(err, &rejected):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: rejected.Error()})
	case errors.Is(err, ErrReviewNotFound), errors.Is(err, ErrBookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrAlreadyReviewed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	slog.Error("review request failed", "error", err, "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid request body",
	})
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid id",
	})
}

func pagination(c *fiber.Ctx) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
