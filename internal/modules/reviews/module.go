package reviews

import (
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules"
	"github.com/gofiber/fiber/v2"
)

type Module struct{}

func New() *Module {
	return &Module{}
}

func (m *Module) ID() string { return "reviews" }

// Models must migrate after the catalog and user tables.
func (m *Module) Models() []interface{} {
	return []interface{}{&Review{}}
}

func (m *Module) RegisterRoutes(router fiber.Router, deps modules.Deps) {
	var extra []string
	if deps.Config != nil {
		extra = deps.Config.ReviewBannedWords
	}
	svc := NewReviewService(deps.DB, moderation.NewFilter(extra...))
	handler := NewReviewHandler(svc, deps.Admin)
	auth := middleware.RequireAuth()

	router.Get("/books/:id/reviews", handler.ListByBook)
	router.Post("/books/:id/reviews", auth, handler.Create)

	router.Get("/reviews", middleware.AdminRequired(deps.Admin), handler.List)
	router.Get("/reviews/:id", handler.Get)
	router.Put("/reviews/:id", auth, handler.Update)
	router.Patch("/reviews/:id", auth, handler.Update)
	router.Delete("/reviews/:id", auth, handler.Delete)
	router.Post("/reviews/:id/like", auth, handler.Like)
}
