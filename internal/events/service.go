package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"gatherly-backend/internal/activity"
	"gatherly-backend/internal/invitations"
	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/apperr"
	"gatherly-backend/internal/pkg/codes"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
	// GenerateCode overrides the random code source (tests force collisions).
	GenerateCode func(n int) string
}

func (s *Service) genCode(n int) string {
	if s.GenerateCode != nil {
		return s.GenerateCode(n)
	}
	return codes.New(n)
}

type CreateEventInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description *string
	StartsAt    time.Time
	Location    *string
}

func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.OwnerID == uuid.Nil {
		return nil, apperr.AuthenticationRequired("You must be signed in to create an event")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("Title is required")
	}
	if in.StartsAt.IsZero() {
		return nil, apperr.Validation("Event date is required")
	}

	event := &models.Event{
		OwnerID:     in.OwnerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartsAt:    in.StartsAt,
		Location:    in.Location,
	}
	if err := s.DB.WithContext(ctx).Create(event).Error; err != nil {
		return nil, apperr.Persistence(err)
	}

	if err := activity.Record(ctx, s.DB, in.OwnerID, &event.EventID, activity.ActionCreatedEvent,
		map[string]interface{}{"title": event.Title}); err != nil {
		log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("activity record failed")
	}
	return event, nil
}

// GetEvent returns one event with the owner's public profile attached.
func (s *Service) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).Preload("Owner").Where("event_id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Event not found")
		}
		return nil, apperr.Persistence(err)
	}
	return &event, nil
}

func (s *Service) ListOwnerEvents(ctx context.Context, ownerID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return events, nil
}

type UpdateEventInput struct {
	EventID     uuid.UUID
	OwnerID     uuid.UUID
	Title       *string
	Description *string
	StartsAt    *time.Time
	Location    *string
}

func (s *Service) UpdateEvent(ctx context.Context, in UpdateEventInput) (*models.Event, error) {
	event, err := s.ownedEvent(ctx, in.EventID, in.OwnerID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.Validation("Title cannot be empty")
		}
		event.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		event.Description = in.Description
	}
	if in.StartsAt != nil {
		event.StartsAt = *in.StartsAt
	}
	if in.Location != nil {
		event.Location = in.Location
	}

	if err := s.DB.WithContext(ctx).Save(event).Error; err != nil {
		return nil, apperr.Persistence(err)
	}

	if err := activity.Record(ctx, s.DB, in.OwnerID, &event.EventID, activity.ActionUpdatedEvent,
		map[string]interface{}{"title": event.Title}); err != nil {
		log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("activity record failed")
	}
	return event, nil
}

type GenerateInviteCodeInput struct {
	EventID uuid.UUID
	OwnerID uuid.UUID
}

// GenerateInviteCode assigns an 8-character join code to the event. Idempotent:
// an already-assigned code is returned unchanged so printed and QR-encoded
// codes stay valid. Generation retries against the store up to
// codes.MaxAttempts before giving up with a conflict.
func (s *Service) GenerateInviteCode(ctx context.Context, in GenerateInviteCodeInput) (string, error) {
	event, err := s.ownedEvent(ctx, in.EventID, in.OwnerID)
	if err != nil {
		return "", err
	}
	if event.InviteCode != nil && *event.InviteCode != "" {
		return *event.InviteCode, nil
	}

	for attempt := 0; attempt < codes.MaxAttempts; attempt++ {
		code := s.genCode(codes.InviteCodeLength)

		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Event{}).
			Where("invite_code = ?", code).Count(&count).Error; err != nil {
			return "", apperr.Persistence(err)
		}
		if count > 0 {
			continue
		}

		event.InviteCode = &code
		if err := s.DB.WithContext(ctx).Save(event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race for this code; try another.
				event.InviteCode = nil
				continue
			}
			return "", apperr.Persistence(err)
		}

		if err := activity.Record(ctx, s.DB, in.OwnerID, &event.EventID, activity.ActionGeneratedInviteCode, nil); err != nil {
			log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("activity record failed")
		}
		return code, nil
	}
	return "", apperr.Conflict("Could not generate a unique invite code")
}

type JoinByCodeInput struct {
	Code        string
	ActorUserID uuid.UUID
	ActorEmail  string
	ActorName   string
}

// JoinByCodeResult carries the resolved event and whether the caller's
// invitation was created fresh or an existing one was promoted.
type JoinByCodeResult struct {
	Event  *models.Event `json:"event"`
	Status string        `json:"status"` // "created" | "updated"
}

// JoinByCode resolves an event by invite code and auto-accepts the caller:
// joining via code is itself treated as an affirmative RSVP.
func (s *Service) JoinByCode(ctx context.Context, in JoinByCodeInput) (*JoinByCodeResult, error) {
	if in.ActorUserID == uuid.Nil || in.ActorEmail == "" {
		return nil, apperr.AuthenticationRequired("You must be signed in to join an event")
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, apperr.Validation("Invite code is required")
	}

	var event models.Event
	if err := s.DB.WithContext(ctx).Preload("Owner").Where("invite_code = ?", code).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("No event found for this invite code")
		}
		return nil, apperr.Persistence(err)
	}

	if event.OwnerID == in.ActorUserID {
		return nil, apperr.SelfJoinForbidden("You cannot join your own event")
	}

	email := strings.ToLower(in.ActorEmail)

	var existing models.Invitation
	err := s.DB.WithContext(ctx).Where("event_id = ? AND email = ?", event.EventID, email).First(&existing).Error
	if err == nil {
		return s.promoteInvitation(ctx, &event, &existing, in.ActorUserID)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.Persistence(err)
	}

	shortCode, err := invitations.GenerateUniqueShortCode(ctx, s.DB, s.genCode)
	if err != nil {
		return nil, err
	}
	inv := &models.Invitation{
		EventID:   event.EventID,
		Email:     email,
		Status:    models.StatusYes,
		ShortCode: &shortCode,
	}
	if in.ActorName != "" {
		name := in.ActorName
		inv.GuestName = &name
	}
	if err := s.DB.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent join for the same (event, email): promote the row
			// that won instead of failing.
			var raced models.Invitation
			if ferr := s.DB.WithContext(ctx).Where("event_id = ? AND email = ?", event.EventID, email).First(&raced).Error; ferr == nil {
				return s.promoteInvitation(ctx, &event, &raced, in.ActorUserID)
			}
			return nil, apperr.Conflict("An invitation for this email already exists")
		}
		return nil, apperr.Persistence(err)
	}

	if err := activity.Record(ctx, s.DB, in.ActorUserID, &event.EventID, activity.ActionJoinedWithInviteCode,
		map[string]interface{}{"status": "new_invitation"}); err != nil {
		log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("activity record failed")
	}
	return &JoinByCodeResult{Event: &event, Status: "created"}, nil
}

func (s *Service) promoteInvitation(ctx context.Context, event *models.Event, inv *models.Invitation, actorID uuid.UUID) (*JoinByCodeResult, error) {
	inv.Status = models.StatusYes
	if err := s.DB.WithContext(ctx).Save(inv).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := activity.Record(ctx, s.DB, actorID, &event.EventID, activity.ActionJoinedWithInviteCode,
		map[string]interface{}{"status": "updated_existing"}); err != nil {
		log.Warn().Err(err).Str("event_id", event.EventID.String()).Msg("activity record failed")
	}
	return &JoinByCodeResult{Event: event, Status: "updated"}, nil
}

type DeleteEventInput struct {
	EventID uuid.UUID
	OwnerID uuid.UUID
}

// DeleteEvent removes the event and its dependent rows (invitations, activity
// entries) in one transaction. The summary entry is written after commit and
// intentionally keeps a reference to the now-deleted event.
func (s *Service) DeleteEvent(ctx context.Context, in DeleteEventInput) error {
	var title string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Where("event_id = ? AND owner_id = ?", in.EventID, in.OwnerID).First(&event).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("Event not found")
			}
			return apperr.Persistence(err)
		}
		title = event.Title
		return deleteEventRows(tx, []uuid.UUID{in.EventID})
	})
	if err != nil {
		return err
	}

	eventID := in.EventID
	if err := activity.Record(ctx, s.DB, in.OwnerID, &eventID, activity.ActionDeletedEvent,
		map[string]interface{}{"title": title}); err != nil {
		log.Warn().Err(err).Str("event_id", eventID.String()).Msg("activity record failed")
	}
	return nil
}

type DeleteEventsInput struct {
	EventIDs []uuid.UUID
	OwnerID  uuid.UUID
}

// DeleteEvents is the batch variant. Ownership is all-or-nothing: if any
// requested id is missing or owned by someone else the whole batch is
// rejected, detected by comparing the found set against the requested set.
func (s *Service) DeleteEvents(ctx context.Context, in DeleteEventsInput) error {
	if len(in.EventIDs) == 0 {
		return apperr.Validation("At least one event id is required")
	}

	unique := make(map[uuid.UUID]struct{}, len(in.EventIDs))
	ids := make([]uuid.UUID, 0, len(in.EventIDs))
	for _, id := range in.EventIDs {
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		ids = append(ids, id)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []models.Event
		if err := tx.Where("event_id IN ? AND owner_id = ?", ids, in.OwnerID).Find(&found).Error; err != nil {
			return apperr.Persistence(err)
		}
		if len(found) != len(ids) {
			return apperr.Forbidden("You can only delete events you own")
		}
		return deleteEventRows(tx, ids)
	})
	if err != nil {
		return err
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	if err := activity.Record(ctx, s.DB, in.OwnerID, nil, activity.ActionDeletedMultipleEvents,
		map[string]interface{}{"count": len(ids), "event_ids": idStrs}); err != nil {
		log.Warn().Err(err).Msg("activity record failed")
	}
	return nil
}

// deleteEventRows removes dependents before the parent rows.
func deleteEventRows(tx *gorm.DB, ids []uuid.UUID) error {
	if err := tx.Where("event_id IN ?", ids).Delete(&models.Invitation{}).Error; err != nil {
		return apperr.Persistence(err)
	}
	if err := tx.Where("event_id IN ?", ids).Delete(&models.ActivityLog{}).Error; err != nil {
		return apperr.Persistence(err)
	}
	if err := tx.Where("event_id IN ?", ids).Delete(&models.Event{}).Error; err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// ownedEvent loads an event and enforces ownership. A missing event reads as
// NotFound, an existing event owned by someone else as Forbidden.
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
