package health

import (
	"gatherly-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Rdb            *redis.Client
	DB             DBPinger
	HealthAdminKey string
}

// JSON GET /health/json — health payload for monitors.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := CollectHealth(c.Context(), h.Rdb, h.DB)
	return c.JSON(result)
}

// Reset GET /health/reset?key=... — clear traffic counters (admin key required).
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if h.HealthAdminKey == "" || c.Query("key") != h.HealthAdminKey {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": "error"})
	}
	if h.Rdb != nil {
		ctx := c.Context()
		h.Rdb.Del(ctx,
			middleware.KeyReqTotal,
			middleware.KeyReqErrors,
			middleware.KeyResTime,
			middleware.KeyResCount,
			middleware.KeyStartTime,
			middleware.KeyLastReq,
		)
	}
	return c.JSON(fiber.Map{"status": "ok", "message": "Health stats reset"})
}
