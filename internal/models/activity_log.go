package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only audit entry. EventID is optional; event-scoped
// entries are removed by the event deletion cascade, everything else is kept
// forever. The deletion summary entry deliberately outlives its event.
type ActivityLog struct {
	LogID     uuid.UUID      `gorm:"column:log_id;type:uuid;primaryKey" json:"log_id"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	EventID   *uuid.UUID     `gorm:"column:event_id;type:uuid;index" json:"event_id"`
	Action    string         `gorm:"column:action;type:varchar(60);not null" json:"action"`
	Detail    datatypes.JSON `gorm:"column:detail;type:jsonb" json:"detail"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "ActivityLogs"
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.LogID == uuid.Nil {
		a.LogID = uuid.New()
	}
	return nil
}
