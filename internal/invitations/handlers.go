package invitations

import (
	"gatherly-backend/internal/middleware"
	"gatherly-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// POST /api/v1/invitations/create-invitation (owner only)
func (h *Handlers) CreateInvitation(c *fiber.Ctx) error {
	var body struct {
		EventID   string  `json:"event_id"`
		Email     string  `json:"email"`
		GuestName *string `json:"guest_name"`
	}
	if err := c.BodyParser(&body); err != nil || body.EventID == "" || body.Email == "" {
		return response.Error(c, "event_id and email are required", 400, nil)
	}
	eventID, err := uuid.Parse(body.EventID)
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	inv, err := h.Service.CreateInvitation(c.Context(), CreateInvitationInput{
		EventID:    eventID,
		OwnerID:    actor.UserID,
		OwnerEmail: actor.Email,
		Email:      body.Email,
		GuestName:  body.GuestName,
	})
	if err != nil {
		return response.Failure(c, err)
	}
	return response.SuccessCreated(c, "Invitation sent successfully", fiber.Map{
		"invitation_id": inv.InviteID,
		"short_code":    inv.ShortCode,
		"invitation":    inv,
	}, nil)
}

// POST /api/v1/invitations/public/resolve (no auth)
func (h *Handlers) Resolve(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "token is required", 400, nil)
	}

	result, err := h.Service.Resolve(c.Context(), body.Token)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Invitation resolved", result, nil)
}

// POST /api/v1/invitations/respond
func (h *Handlers) Respond(c *fiber.Ctx) error {
	var body struct {
		Token    string `json:"token"`
		Response string `json:"response"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" || body.Response == "" {
		return response.Error(c, "token and response are required", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.Service.Respond(c.Context(), RespondInput{
		Token:       body.Token,
		Status:      body.Response,
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
	})
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, result.Message, result, nil)
}

// POST /api/v1/invitations/resend-invitation (owner only)
func (h *Handlers) ResendInvitation(c *fiber.Ctx) error {
	var body struct {
		EventID string `json:"event_id"`
		Email   string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.EventID == "" || body.Email == "" {
		return response.Error(c, "event_id and email are required", 400, nil)
	}
	eventID, err := uuid.Parse(body.EventID)
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	inv, err := h.Service.ResendInvitation(c.Context(), ResendInput{
		EventID: eventID,
		Email:   body.Email,
		OwnerID: actor.UserID,
	})
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Invitation resent successfully", inv, nil)
}

// GET /api/v1/invitations/event/:event_id (owner only)
func (h *Handlers) ListEventInvitations(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("event_id"))
	if err != nil {
		return response.Error(c, "Invalid event id", 400, nil)
	}

	actor := middleware.CurrentActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	invs, err := h.Service.ListEventInvitations(c.Context(), eventID, actor.UserID)
	if err != nil {
		return response.Failure(c, err)
	}
	return response.Success(c, "Invitations fetched successfully", invs, nil)
}
