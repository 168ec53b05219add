package activity

import (
	"gatherly-backend/internal/middleware"
	"gatherly-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// GET /api/v1/activity/recent?limit=50
func (h *Handlers) Recent(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	limit := c.QueryInt("limit", 50)
	entries, err := h.Service.RecentForUser(c.Context(), actor.UserID, limit)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Activity fetched successfully", entries, nil)
}

// GET /api/v1/activity/event/:event_id (owner only)
func (h *Handlers) ListForEvent(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	eventID, err := uuid.Parse(c.Params("event_id"))
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	entries, err := h.Service.ListForEvent(c.Context(), eventID, actor.UserID)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Event activity fetched successfully", entries, nil)
}
