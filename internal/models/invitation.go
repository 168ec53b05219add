package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Response status values for an invitation. Default is pending; the
// join-by-code path creates invitations directly as yes.
const (
	StatusPending = "pending"
	StatusYes     = "yes"
	StatusNo      = "no"
	StatusMaybe   = "maybe"
)

// ValidStatus reports whether s is one of the four response statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusYes || s == StatusNo || s == StatusMaybe
}

// ValidResponse reports whether s is a status a guest may respond with
// (pending is the initial state, not a response).
func ValidResponse(s string) bool {
	return s == StatusYes || s == StatusNo || s == StatusMaybe
}

// Invitation targets one email per event. The (event_id, email) unique index
// is the dedup guarantee; ShortCode is an alternate public identifier.
type Invitation struct {
	InviteID  uuid.UUID      `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_invitation_event_email" json:"event_id"`
	Email     string         `gorm:"column:email;not null;uniqueIndex:idx_invitation_event_email" json:"email"`
	GuestName *string        `gorm:"column:guest_name" json:"guest_name"`
	Status    string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	ShortCode *string        `gorm:"column:short_code;uniqueIndex" json:"short_code"`
	Event     *Event         `gorm:"foreignKey:EventID;references:EventID" json:"event,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invitation) TableName() string {
	return "Invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}
