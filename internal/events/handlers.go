package events

import (
	"time"

	"gatherly-backend/internal/middleware"
	"gatherly-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// POST /api/v1/events/create-event
func (h *Handlers) CreateEvent(c *fiber.Ctx) error {
	var body struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		StartsAt    string  `json:"starts_at"`
		Location    *string `json:"location"`
	}
	if err := c.BodyParser(&body); err != nil || body.Title == "" || body.StartsAt == "" {
		return response.Error(c, "Title and starts_at are required", 400, nil)
	}
	startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		return response.Error(c, "starts_at must be an RFC3339 timestamp", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	event, err := h.Service.CreateEvent(c.Context(), CreateEventInput{
		OwnerID:     actor.UserID,
		Title:       body.Title,
		Description: body.Description,
		StartsAt:    startsAt,
		Location:    body.Location,
	})
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Event created successfully", event, nil)
}

// GET /api/v1/events/my-events
func (h *Handlers) MyEvents(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	events, err := h.Service.ListOwnerEvents(c.Context(), actor.UserID)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Events fetched successfully", events, nil)
}

// GET /api/v1/events/view-event/:id
func (h *Handlers) ViewEvent(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	event, err := h.Service.GetEvent(c.Context(), eventID)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Event fetched successfully", event, nil)
}

// PATCH /api/v1/events/update-event/:id
func (h *Handlers) UpdateEvent(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	var body struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		StartsAt    *string `json:"starts_at"`
		Location    *string `json:"location"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	in := UpdateEventInput{
		EventID:     eventID,
		OwnerID:     actor.UserID,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
	}
	if body.StartsAt != nil {
		startsAt, err := time.Parse(time.RFC3339, *body.StartsAt)
		if err != nil {
			return response.Error(c, "starts_at must be an RFC3339 timestamp", 400, nil)
		}
		in.StartsAt = &startsAt
	}

	event, err := h.Service.UpdateEvent(c.Context(), in)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Event updated successfully", event, nil)
}

// POST /api/v1/events/generate-invite-code/:id
func (h *Handlers) GenerateInviteCode(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	code, err := h.Service.GenerateInviteCode(c.Context(), GenerateInviteCodeInput{
		EventID: eventID,
		OwnerID: actor.UserID,
	})
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Invite code ready", fiber.Map{"code": code}, nil)
}

// POST /api/v1/events/join-by-code
func (h *Handlers) JoinByCode(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return response.Error(c, "Invite code is required", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.Service.JoinByCode(c.Context(), JoinByCodeInput{
		Code:        body.Code,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		ActorName:   actor.Fullname,
	})
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Joined event successfully", result, nil)
}

// DELETE /api/v1/events/delete-event/:id
func (h *Handlers) DeleteEvent(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.Service.DeleteEvent(c.Context(), DeleteEventInput{
		EventID: eventID,
		OwnerID: actor.UserID,
	}); err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Event deleted successfully", nil, nil)
}

// POST /api/v1/events/delete-events
func (h *Handlers) DeleteEvents(c *fiber.Ctx) error {
	var body struct {
		EventIDs []string `json:"event_ids"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.EventIDs) == 0 {
		return response.Error(c, "event_ids is required", 400, nil)
	}

	ids := make([]uuid.UUID, 0, len(body.EventIDs))
	for _, raw := range body.EventIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid event id: "+raw, 400, nil)
		}
		ids = append(ids, id)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.Service.DeleteEvents(c.Context(), DeleteEventsInput{
		EventIDs: ids,
		OwnerID:  actor.UserID,
	}); err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Events deleted successfully", nil, nil)
}
