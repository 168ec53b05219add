package activity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupActivityTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}, &models.ActivityLog{}))
	return &Service{DB: db}, db
}

func TestRecord_MarshalsDetail(t *testing.T) {
	_, db := setupActivityTest(t)
	userID := uuid.New()
	eventID := uuid.New()

	require.NoError(t, Record(context.Background(), db, userID, &eventID, ActionCreatedEvent,
		map[string]interface{}{"title": "Picnic"}))

	var entry models.ActivityLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, ActionCreatedEvent, entry.Action)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Detail, &detail))
	assert.Equal(t, "Picnic", detail["title"])
}

func TestRecord_NilDetailBecomesEmptyObject(t *testing.T) {
	_, db := setupActivityTest(t)

	require.NoError(t, Record(context.Background(), db, uuid.New(), nil, ActionGeneratedInviteCode, nil))

	var entry models.ActivityLog
	require.NoError(t, db.First(&entry).Error)
	assert.Nil(t, entry.EventID)
	assert.JSONEq(t, "{}", string(entry.Detail))
}

func TestRecentForUser_NewestFirstAndCapped(t *testing.T) {
	svc, db := setupActivityTest(t)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		entry := &models.ActivityLog{
			UserID:    userID,
			Action:    ActionCreatedEvent,
			Detail:    []byte(`{}`),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(entry).Error)
	}

	entries, err := svc.RecentForUser(context.Background(), userID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))

	all, err := svc.RecentForUser(context.Background(), userID, 0) // defaults to 50
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListForEvent_OwnerScoped(t *testing.T) {
	svc, db := setupActivityTest(t)
	owner := &models.User{Fullname: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(owner).Error)
	stranger := uuid.New()

	event := &models.Event{OwnerID: owner.UserID, Title: "Reunion", StartsAt: time.Now()}
	require.NoError(t, db.Create(event).Error)

	eventID := event.EventID
	require.NoError(t, Record(context.Background(), db, owner.UserID, &eventID, ActionCreatedEvent, nil))

	entries, err := svc.ListForEvent(context.Background(), event.EventID, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A non-owner cannot tell whether the event exists.
	_, err = svc.ListForEvent(context.Background(), event.EventID, stranger)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
