package modules

import (
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps are the shared services a module may use when mounting routes.
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Storage storage.ObjectStore
	Admin   *middleware.AdminPolicy
}

// Module is a self-contained feature area mounted under /api.
type Module interface {
	// ID returns the unique module identifier used in logs.
	ID() string

	// Models returns the GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts the module's routes. The router already runs
	// middleware.Authenticate, so requests may be anonymous; each route
	// applies RequireAuth or AdminRequired itself.
	RegisterRoutes(router fiber.Router, deps Deps)
}
