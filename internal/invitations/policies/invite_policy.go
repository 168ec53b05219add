package policies

import (
	"strings"

	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidateResponder checks that the acting identity may respond to the
// invitation. Missing identity and wrong email are distinct failures: the
// first sends the UI to sign-in, the second to an account switch.
func ValidateResponder(inv *models.Invitation, actorUserID uuid.UUID, actorEmail string) error {
	if actorUserID == uuid.Nil || actorEmail == "" {
		return apperr.AuthenticationRequired("You must be signed in to respond to an invitation")
	}
	if !strings.EqualFold(inv.Email, actorEmail) {
		return apperr.WrongEmail("This invitation was sent to a different email address", inv.Email)
	}
	return nil
}

// ValidateInviteCreation runs the advisory pre-checks before inserting an
// invitation. The (event_id, email) unique index is the real guarantee; these
// checks only produce friendlier messages.
func ValidateInviteCreation(db *gorm.DB, event *models.Event, email, actorEmail string) error {
	normalized := strings.ToLower(email)

	if normalized == strings.ToLower(actorEmail) {
		return apperr.Validation("You cannot invite yourself")
	}

	var existing models.Invitation
	if err := db.Where("event_id = ? AND email = ?", event.EventID, normalized).
		First(&existing).Error; err == nil {
		return apperr.Conflict("An invitation for this email already exists")
	}

	return nil
}
