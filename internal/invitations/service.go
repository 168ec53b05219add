package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly-backend/internal/activity"
	"gatherly-backend/internal/emails"
	"gatherly-backend/internal/invitations/policies"
	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/apperr"
	"gatherly-backend/internal/pkg/codes"
	"gatherly-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const resendCooldown = 24 * time.Hour

type Service struct {
	DB            *gorm.DB
	Mail          emails.Sender // nil = no email
	InviteBaseURL string
	// GenerateCode overrides the random code source (tests force collisions).
	GenerateCode func(n int) string
}

func (s *Service) genCode(n int) string {
	if s.GenerateCode != nil {
		return s.GenerateCode(n)
	}
	return codes.New(n)
}

// GenerateUniqueShortCode produces a 6-character short code that does not
// collide with any existing invitation, retrying up to codes.MaxAttempts.
// Shared with the join workflow, which also creates invitations.
func GenerateUniqueShortCode(ctx context.Context, db *gorm.DB, gen func(n int) string) (string, error) {
	if gen == nil {
		gen = codes.New
	}
	for attempt := 0; attempt < codes.MaxAttempts; attempt++ {
		code := gen(codes.ShortCodeLength)
		var count int64
		if err := db.WithContext(ctx).Model(&models.Invitation{}).
			Where("short_code = ?", code).Count(&count).Error; err != nil {
			return "", apperr.Persistence(err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", apperr.Conflict("Could not generate a unique short code")
}

type CreateInvitationInput struct {
	EventID    uuid.UUID
	OwnerID    uuid.UUID
	OwnerEmail string
	Email      string
	GuestName  *string
}

func (s *Service) CreateInvitation(ctx context.Context, in CreateInvitationInput) (*models.Invitation, error) {
	if in.OwnerID == uuid.Nil {
		return nil, apperr.AuthenticationRequired("You must be signed in to invite guests")
	}
	if !validation.IsValidEmail(in.Email) {
		return nil, apperr.Validation("A valid guest email is required")
	}

	event, err := s.ownedEvent(ctx, in.EventID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := policies.ValidateInviteCreation(s.DB.WithContext(ctx), event, in.Email, in.OwnerEmail); err != nil {
		return nil, err
	}

	shortCode, err := GenerateUniqueShortCode(ctx, s.DB, s.genCode)
	if err != nil {
		return nil, err
	}

	inv := &models.Invitation{
		EventID:   event.EventID,
		Email:     strings.ToLower(in.Email),
		GuestName: in.GuestName,
		Status:    models.StatusPending,
		ShortCode: &shortCode,
	}
	if err := s.DB.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("An invitation for this email already exists")
		}
		return nil, apperr.Persistence(err)
	}

	if err := activity.Record(ctx, s.DB, in.OwnerID, &event.EventID, activity.ActionCreatedInvitation,
		map[string]interface{}{"email": inv.Email}); err != nil {
		log.Warn().Err(err).Str("invite_id", inv.InviteID.String()).Msg("activity record failed")
	}

	if s.Mail != nil {
		name := ""
		if inv.GuestName != nil {
			name = *inv.GuestName
		}
		if err := s.Mail.SendInvitation(ctx, inv.Email, name, event.Title, s.inviteLink(shortCode), shortCode); err != nil {
			log.Warn().Err(err).Str("email", inv.Email).Msg("invitation email failed")
		}
	}
	return inv, nil
}

// ResolveResult tags which lookup matched so callers never care which kind of
// token they were handed.
type ResolveResult struct {
	Invitation *models.Invitation `json:"invitation"`
	MatchedBy  string             `json:"matched_by"` // "invite_id" | "short_code"
}

// Resolve finds an invitation by primary identifier or short code, in that
// order. The owning event and the owner's public profile ride along so the
// caller never needs a second round trip.
func (s *Service) Resolve(ctx context.Context, token string) (*ResolveResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("Invitation token is required")
	}

	q := s.DB.WithContext(ctx).Preload("Event").Preload("Event.Owner")

	if id, err := uuid.Parse(token); err == nil {
		var inv models.Invitation
		err := q.Where("invite_id = ?", id).First(&inv).Error
		if err == nil {
			return &ResolveResult{Invitation: &inv, MatchedBy: "invite_id"}, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, apperr.Persistence(err)
		}
	}

	var inv models.Invitation
	err := s.DB.WithContext(ctx).Preload("Event").Preload("Event.Owner").
		Where("short_code = ?", strings.ToUpper(token)).First(&inv).Error
	if err == nil {
		return &ResolveResult{Invitation: &inv, MatchedBy: "short_code"}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Persistence(err)
	}
	return nil, apperr.NotFound("Invitation not found")
}

type RespondInput struct {
	Token       string
	Status      string
	ActorUserID uuid.UUID
	ActorEmail  string
}

type RespondResult struct {
	Message string    `json:"message"`
	EventID uuid.UUID `json:"event_id"`
}

// Respond applies a guest's yes/no/maybe decision. The overwrite is
// unconditional (last write wins) and every call appends a log entry, even a
// repeat of the current status.
func (s *Service) Respond(ctx context.Context, in RespondInput) (*RespondResult, error) {
	if !models.ValidResponse(in.Status) {
		return nil, apperr.Validation("Response must be one of yes, no or maybe")
	}

	resolved, err := s.Resolve(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	inv := resolved.Invitation

	if err := policies.ValidateResponder(inv, in.ActorUserID, in.ActorEmail); err != nil {
		return nil, err
	}

	inv.Status = in.Status
	if err := s.DB.WithContext(ctx).Save(inv).Error; err != nil {
		return nil, apperr.Persistence(err)
	}

	if err := activity.Record(ctx, s.DB, in.ActorUserID, &inv.EventID, activity.ActionRespondedPrefix+in.Status, nil); err != nil {
		log.Warn().Err(err).Str("invite_id", inv.InviteID.String()).Msg("activity record failed")
	}

	if s.Mail != nil && inv.Event != nil && inv.Event.Owner != nil {
		if err := s.Mail.SendResponseNotification(ctx, inv.Event.Owner.Email, inv.Email, inv.Event.Title, in.Status); err != nil {
			log.Warn().Err(err).Str("email", inv.Event.Owner.Email).Msg("response notification failed")
		}
	}

	return &RespondResult{
		Message: fmt.Sprintf("Your response has been recorded: %s", in.Status),
		EventID: inv.EventID,
	}, nil
}

type ResendInput struct {
	EventID uuid.UUID
	Email   string
	OwnerID uuid.UUID
}

// ResendInvitation re-sends the invitation email, at most once per day.
func (s *Service) ResendInvitation(ctx context.Context, in ResendInput) (*models.Invitation, error) {
	event, err := s.ownedEvent(ctx, in.EventID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	normalized := strings.ToLower(in.Email)
	var inv models.Invitation
	if err := s.DB.WithContext(ctx).Where("event_id = ? AND email = ?", event.EventID, normalized).First(&inv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Invitation not found")
		}
		return nil, apperr.Persistence(err)
	}

	if time.Since(inv.UpdatedAt) < resendCooldown {
		return nil, apperr.Conflict("Invitation can only be resent once per day")
	}

	inv.UpdatedAt = time.Now()
	if err := s.DB.WithContext(ctx).Save(&inv).Error; err != nil {
		return nil, apperr.Persistence(err)
	}

	if err := activity.Record(ctx, s.DB, in.OwnerID, &event.EventID, activity.ActionResentInvitation,
		map[string]interface{}{"email": inv.Email}); err != nil {
		log.Warn().Err(err).Str("invite_id", inv.InviteID.String()).Msg("activity record failed")
	}

	if s.Mail != nil {
		name := ""
		if inv.GuestName != nil {
			name = *inv.GuestName
		}
		shortCode := ""
		if inv.ShortCode != nil {
			shortCode = *inv.ShortCode
		}
		if err := s.Mail.SendInvitationReminder(ctx, inv.Email, name, event.Title, s.inviteLink(shortCode), shortCode); err != nil {
			log.Warn().Err(err).Str("email", inv.Email).Msg("reminder email failed")
		}
	}
	return &inv, nil
}

// ListEventInvitations returns an event's invitations for its owner.
func (s *Service) ListEventInvitations(ctx context.Context, eventID, ownerID uuid.UUID) ([]models.Invitation, error) {
	if _, err := s.ownedEvent(ctx, eventID, ownerID); err != nil {
		return nil, err
	}
	var invs []models.Invitation
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).
		Order("created_at DESC").Find(&invs).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return invs, nil
}

func (s *Service) inviteLink(shortCode string) string {
	base := strings.TrimRight(s.InviteBaseURL, "/")
	if base == "" {
		base = "https://app.gatherly.app"
	}
	return fmt.Sprintf("%s/invite/%s", base, shortCode)
}

func (s *Service) ownedEvent(ctx context.Context, eventID, ownerID uuid.UUID) (*models.Event, error) {
	if ownerID == uuid.Nil {
		return nil, apperr.AuthenticationRequired("You must be signed in")
	}
	var event models.Event
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Event not found")
		}
		return nil, apperr.Persistence(err)
	}
	if event.OwnerID != ownerID {
		return nil, apperr.Forbidden("You do not own this event")
	}
	return &event, nil
}
