package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping        func(ctx context.Context) error
	cfg         *config.Config
	moduleCount int
}

func NewHealthHandler(ping func(ctx context.Context) error, cfg *config.Config, moduleCount int) *HealthHandler {
	return &HealthHandler{ping: ping, cfg: cfg, moduleCount: moduleCount}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.ping(c.UserContext()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Storage:   h.cfg.StorageEnabled(),
		Redis:     h.cfg.RedisEnabled(),
		Modules:   h.moduleCount,
	})
}
