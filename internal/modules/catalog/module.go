package catalog

import (
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules"
	"github.com/gofiber/fiber/v2"
)

type Module struct{}

func New() *Module {
	return &Module{}
}

func (m *Module) ID() string { return "catalog" }

func (m *Module) Models() []interface{} {
	return []interface{}{
		&Genre{},
		&Author{},
		&Book{},
	}
}

func (m *Module) RegisterRoutes(router fiber.Router, deps modules.Deps) {
	svc := NewCatalogService(deps.DB, deps.Storage)
	handler := NewCatalogHandler(svc)
	admin := middleware.AdminRequired(deps.Admin)

	// Genres
	router.Get("/genres", handler.ListGenres)
	router.Get("/genres/:id", handler.GetGenre)
	router.Post("/genres", admin, handler.CreateGenre)
	router.Put("/genres/:id", admin, handler.UpdateGenre)
	router.Delete("/genres/:id", admin, handler.DeleteGenre)

	// Authors
	router.Get("/authors", handler.ListAuthors)
	router.Get("/authors/:id", handler.GetAuthor)
	router.Post("/authors", admin, handler.CreateAuthor)
	router.Put("/authors/:id", admin, handler.UpdateAuthor)
	router.Delete("/authors/:id", admin, handler.DeleteAuthor)

	// Books
	router.Get("/books", handler.ListBooks)
	router.Get("/books/:id", handler.GetBook)
	router.Post("/books", admin, handler.CreateBook)
	router.Put("/books/:id", admin, handler.ReplaceBook)
	router.Patch("/books/:id", admin, handler.PatchBook)
	router.Delete("/books/:id", admin, handler.DeleteBook)
	router.Post("/books/:id/cover", admin, handler.UploadCover)
}
