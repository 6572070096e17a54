package catalog

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	service *CatalogService
}

func NewCatalogHandler(service *CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// --- genres ---

func (h *CatalogHandler) ListGenres(c *fiber.Ctx) error {
	genres, err := h.service.ListGenres(c.UserContext())
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(fiber.Map{"genres": genres})
}

func (h *CatalogHandler) GetGenre(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	genre, err := h.service.GetGenre(c.UserContext(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(genre)
}

func (h *CatalogHandler) CreateGenre(c *fiber.Ctx) error {
	var req GenreRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	genre, err := h.service.CreateGenre(c.UserContext(), req)
	if err != nil {
		return catalogError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(genre)
}

func (h *CatalogHandler) UpdateGenre(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req GenreRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	genre, err := h.service.UpdateGenre(c.UserContext(), id, req)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(genre)
}

func (h *CatalogHandler) DeleteGenre(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	if err := h.service.DeleteGenre(c.UserContext(), id); err != nil {
		return catalogError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- authors ---

func (h *CatalogHandler) ListAuthors(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	resp, err := h.service.ListAuthors(c.UserContext(), limit, offset)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(resp)
}

func (h *CatalogHandler) GetAuthor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	author, err := h.service.GetAuthor(c.UserContext(), id)
	if err != nil {
		return authorError(c, err)
	}
	return c.JSON(author)
}

func (h *CatalogHandler) CreateAuthor(c *fiber.Ctx) error {
	var req AuthorRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	author, err := h.service.CreateAuthor(c.UserContext(), req)
	if err != nil {
		return catalogError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(author)
}

func (h *CatalogHandler) UpdateAuthor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req AuthorRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	author, err := h.service.UpdateAuthor(c.UserContext(), id, req)
	if err != nil {
		return authorError(c, err)
	}
	return c.JSON(author)
}

func (h *CatalogHandler) DeleteAuthor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	if err := h.service.DeleteAuthor(c.UserContext(), id); err != nil {
		return authorError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- books ---

func (h *CatalogHandler) ListBooks(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := BookFilter{Query: c.Query("q"), Limit: limit, Offset: offset}
	if raw := c.Query("authorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid authorId",
			})
		}
		filter.AuthorID = id
	}

	resp, err := h.service.ListBooks(c.UserContext(), filter)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(resp)
}

func (h *CatalogHandler) GetBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	book, err := h.service.GetBook(c.UserContext(), id)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(book)
}

func (h *CatalogHandler) CreateBook(c *fiber.Ctx) error {
	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	book, err := h.service.CreateBook(c.UserContext(), req)
	if err != nil {
		return catalogError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

func (h *CatalogHandler) ReplaceBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	book, err := h.service.ReplaceBook(c.UserContext(), id, req)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(book)
}

func (h *CatalogHandler) PatchBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	var req BookPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := req.Validate(); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(errs))
	}

	book, err := h.service.PatchBook(c.UserContext(), id, req)
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(book)
}

func (h *CatalogHandler) DeleteBook(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}
	if err := h.service.DeleteBook(c.UserContext(), id); err != nil {
		return catalogError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) UploadCover(c *fiber.Ctx) error {
	if !h.service.CoversEnabled() {
		return storageUnavailable(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidID(c)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Missing file",
		})
	}
	if fh.Size > MaxCoverBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Message: ErrInvalidCover.Error(),
		})
	}

	f, err := fh.Open()
	if err != nil {
		return badBody(c)
	}
	defer f.Close()

	book, err := h.service.UploadCover(c.UserContext(), id, f, fh.Size, fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return catalogError(c, err)
	}
	return c.JSON(book)
}

// catalogError maps service errors to responses. A missing author is a 404
// on the author routes and a field error when referenced from a book.
func catalogError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrGenreNotFound), errors.Is(err, ErrBookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrGenreExists), errors.Is(err, ErrAuthorHasBooks):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrAuthorNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(dto.FieldErrors{"authorId": err.Error()}))
	case errors.Is(err, ErrUnknownGenre):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ValidationError(dto.FieldErrors{"genreIds": err.Error()}))
	case errors.Is(err, ErrInvalidCover):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, storage.ErrDisabled):
		return storageUnavailable(c)
	}
	return serverError(c, err)
}

func authorError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrAuthorNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	return catalogError(c, err)
}

func storageUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
		Error: true, Message: "Object storage is not configured",
	})
}

func serverError(c *fiber.Ctx, err error) error {
	slog.Error("catalog request failed", "error", err, "path", c.Path())
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
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 {
		limit = 20
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
