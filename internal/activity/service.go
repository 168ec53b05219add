package activity

import (
	"context"
	"encoding/json"

	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action tags written by the workflows.
const (
	ActionCreatedEvent          = "created_event"
	ActionUpdatedEvent          = "updated_event"
	ActionDeletedEvent          = "deleted_event"
	ActionDeletedMultipleEvents = "deleted_multiple_events"
	ActionGeneratedInviteCode   = "generated_invite_code"
	ActionCreatedInvitation     = "created_invitation"
	ActionResentInvitation      = "resent_invitation"
	ActionJoinedWithInviteCode  = "joined_with_invite_code"
	ActionRespondedPrefix       = "responded_" // responded_yes / responded_no / responded_maybe
)

// Record appends one activity entry. Detail may be nil.
func Record(ctx context.Context, db *gorm.DB, userID uuid.UUID, eventID *uuid.UUID, action string, detail map[string]interface{}) error {
	if detail == nil {
		detail = map[string]interface{}{}
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	entry := &models.ActivityLog{
		UserID:  userID,
		EventID: eventID,
		Action:  action,
		Detail:  b,
	}
	return db.WithContext(ctx).Create(entry).Error
}

type Service struct {
	DB *gorm.DB
}

// RecentForUser returns the acting identity's latest entries, newest first.
func (s *Service) RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.ActivityLog
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return entries, nil
}

// ListForEvent returns an event's entries for its owner, oldest first.
func (s *Service) ListForEvent(ctx context.Context, eventID, ownerID uuid.UUID) ([]models.ActivityLog, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).Where("event_id = ? AND owner_id = ?", eventID, ownerID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("Event not found")
		}
		return nil, apperr.Persistence(err)
	}

	var entries []models.ActivityLog
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).
		Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, apperr.Persistence(err)
	}
	return entries, nil
}
