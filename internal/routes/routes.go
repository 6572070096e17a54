package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/token"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	apiRequestsPerMinute  = 60
	authRequestsPerMinute = 10
)

// Router carries everything Setup mounts under /api.
type Router struct {
	Codec      *token.Codec
	Principals middleware.PrincipalLookup
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Health     *handlers.HealthHandler
	Deps       modules.Deps
	Modules    []modules.Module

	// LimiterStorage backs the rate limiters; nil keeps counters in memory.
	LimiterStorage fiber.Storage
}

func Setup(app *fiber.App, r Router) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(rateLimit("api", apiRequestsPerMinute, r.LimiterStorage))

	// Health is registered before Authenticate so health checks never touch the user store.
	api.Get("/health", r.Health.Check)

	// Every route below sees the principal, or runs anonymously.
	api.Use(middleware.Authenticate(r.Codec, r.Principals))

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth", rateLimit("auth", authRequestsPerMinute, r.LimiterStorage))
	auth.Post("/register", r.Auth.Register)
	auth.Post("/login", r.Auth.Login)
	auth.Post("/refresh", r.Auth.Refresh)
	auth.Post("/logout", r.Auth.Logout)
	auth.Post("/logout-all", middleware.RequireAuth(), r.Auth.LogoutAll)
	auth.Get("/sessions", middleware.RequireAuth(), r.Auth.Sessions)

	admin := middleware.AdminRequired(r.Deps.Admin)

	users := api.Group("/users", middleware.RequireAuth())
	users.Get("/me", r.Users.Me)
	users.Patch("/me", r.Users.UpdateMe)
	users.Patch("/me/password", r.Users.ChangePassword)
	users.Get("/", admin, r.Users.List)
	users.Get("/:id", r.Users.Get)
	users.Delete("/:id", admin, r.Users.Delete)

	api.Patch("/admin/users/:id/status", admin, r.Users.SetStatus)

	for _, m := range r.Modules {
		m.RegisterRoutes(api, r.Deps)
	}
}

func rateLimit(scope string, max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return scope + ":" + c.IP() },
		Storage:           storage,
	})
}
