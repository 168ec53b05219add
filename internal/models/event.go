package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is an organizer-owned gathering. InviteCode is nil until the owner
// generates one; once set it is unique across all events.
type Event struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	OwnerID     uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description *string        `gorm:"column:description" json:"description"`
	StartsAt    time.Time      `gorm:"column:starts_at;not null" json:"starts_at"`
	Location    *string        `gorm:"column:location" json:"location"`
	InviteCode  *string        `gorm:"column:invite_code;uniqueIndex" json:"invite_code"`
	Owner       *User          `gorm:"foreignKey:OwnerID;references:UserID" json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string {
	return "Events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
