package invitations

import (
	"context"
	"strings"
	"testing"
	"time"

	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/apperr"
	"gatherly-backend/internal/pkg/codes"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupInvitationsTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}, &models.Invitation{}, &models.ActivityLog{}))
	return &Service{DB: db}, db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	u := &models.User{Fullname: "Test User", Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedEvent(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *models.Event {
	e := &models.Event{OwnerID: ownerID, Title: "Garden Party", StartsAt: time.Now().Add(72 * time.Hour)}
	require.NoError(t, db.Create(e).Error)
	return e
}

func seedInvitation(t *testing.T, db *gorm.DB, eventID uuid.UUID, email, shortCode string) *models.Invitation {
	inv := &models.Invitation{EventID: eventID, Email: email, Status: models.StatusPending}
	if shortCode != "" {
		inv.ShortCode = &shortCode
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func TestCreateInvitation_PendingWithShortCode(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		EventID:    event.EventID,
		OwnerID:    owner.UserID,
		OwnerEmail: owner.Email,
		Email:      "Guest@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, inv.Status)
	assert.Equal(t, "guest@example.com", inv.Email)
	require.NotNil(t, inv.ShortCode)
	assert.Len(t, *inv.ShortCode, codes.ShortCodeLength)
	for _, r := range *inv.ShortCode {
		assert.True(t, strings.ContainsRune(codes.Alphabet, r))
	}

	var logs []models.ActivityLog
	require.NoError(t, db.Where("action = ?", "created_invitation").Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestCreateInvitation_DuplicateEmailConflict(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "AAAAAA")

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		EventID:    event.EventID,
		OwnerID:    owner.UserID,
		OwnerEmail: owner.Email,
		Email:      "GUEST@example.com",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestCreateInvitation_SelfInviteRejected(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		EventID:    event.EventID,
		OwnerID:    owner.UserID,
		OwnerEmail: owner.Email,
		Email:      "Owner@Example.com",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateInvitation_NotOwnerForbidden(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	event := seedEvent(t, db, owner.UserID)

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		EventID:    event.EventID,
		OwnerID:    stranger.UserID,
		OwnerEmail: stranger.Email,
		Email:      "guest@example.com",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestGenerateUniqueShortCode_RetriesPastCollision(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "taken@example.com", "TAKEN2")

	calls := 0
	gen := func(n int) string {
		calls++
		if calls == 1 {
			return "TAKEN2"
		}
		return "FRESH2"
	}
	code, err := GenerateUniqueShortCode(context.Background(), svc.DB, gen)
	require.NoError(t, err)
	assert.Equal(t, "FRESH2", code)
	assert.Equal(t, 2, calls)
}

func TestGenerateUniqueShortCode_ExhaustedConflict(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "taken@example.com", "TAKEN2")

	_, err := GenerateUniqueShortCode(context.Background(), svc.DB, func(n int) string { return "TAKEN2" })
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestResolve_ByInviteIDAndShortCode(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	byID, err := svc.Resolve(context.Background(), inv.InviteID.String())
	require.NoError(t, err)
	assert.Equal(t, "invite_id", byID.MatchedBy)
	assert.Equal(t, inv.InviteID, byID.Invitation.InviteID)
	require.NotNil(t, byID.Invitation.Event)
	assert.Equal(t, event.EventID, byID.Invitation.Event.EventID)
	require.NotNil(t, byID.Invitation.Event.Owner)
	assert.Equal(t, owner.Email, byID.Invitation.Event.Owner.Email)

	byCode, err := svc.Resolve(context.Background(), "qrstuv")
	require.NoError(t, err)
	assert.Equal(t, "short_code", byCode.MatchedBy)
	assert.Equal(t, inv.InviteID, byCode.Invitation.InviteID)
}

func TestResolve_UUIDMissFallsThroughToShortCode(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	// A well-formed uuid that matches no invitation must not short-circuit
	// the short-code lookup.
	_, err := svc.Resolve(context.Background(), uuid.NewString())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	got, err := svc.Resolve(context.Background(), "QRSTUV")
	require.NoError(t, err)
	assert.Equal(t, inv.InviteID, got.Invitation.InviteID)
}

func TestResolve_UnknownTokenNotFound(t *testing.T) {
	svc, _ := setupInvitationsTest(t)
	_, err := svc.Resolve(context.Background(), "NOSUCH")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRespond_UpdatesStatusAndLogs(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	guest := seedUser(t, db, "guest@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	result, err := svc.Respond(context.Background(), RespondInput{
		Token:       "QRSTUV",
		Status:      models.StatusYes,
		ActorUserID: guest.UserID,
		ActorEmail:  "Guest@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, event.EventID, result.EventID)

	var got models.Invitation
	require.NoError(t, db.First(&got, "invite_id = ?", inv.InviteID).Error)
	assert.Equal(t, models.StatusYes, got.Status)

	var logs []models.ActivityLog
	require.NoError(t, db.Where("action = ?", "responded_yes").Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestRespond_RepeatAppendsAnotherLogEntry(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	guest := seedUser(t, db, "guest@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	in := RespondInput{
		Token:       inv.InviteID.String(),
		Status:      models.StatusMaybe,
		ActorUserID: guest.UserID,
		ActorEmail:  guest.Email,
	}
	_, err := svc.Respond(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), in)
	require.NoError(t, err)

	var got models.Invitation
	require.NoError(t, db.First(&got, "invite_id = ?", inv.InviteID).Error)
	assert.Equal(t, models.StatusMaybe, got.Status)

	var logs []models.ActivityLog
	require.NoError(t, db.Where("action = ?", "responded_maybe").Find(&logs).Error)
	assert.Len(t, logs, 2, "every call appends, repeats included")
}

func TestRespond_WrongEmailKeepsStatus(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	_, err := svc.Respond(context.Background(), RespondInput{
		Token:       "QRSTUV",
		Status:      models.StatusNo,
		ActorUserID: intruder.UserID,
		ActorEmail:  intruder.Email,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindWrongEmail))

	ae := apperr.From(err)
	assert.Equal(t, "guest@example.com", ae.Details["invitation_email"])

	var got models.Invitation
	require.NoError(t, db.First(&got, "invite_id = ?", inv.InviteID).Error)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestRespond_AnonymousRequiresAuthentication(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	_, err := svc.Respond(context.Background(), RespondInput{
		Token:  "QRSTUV",
		Status: models.StatusYes,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindAuthenticationRequired))
}

func TestRespond_InvalidStatus(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	guest := seedUser(t, db, "guest@example.com")

	_, err := svc.Respond(context.Background(), RespondInput{
		Token:       "QRSTUV",
		Status:      "definitely",
		ActorUserID: guest.UserID,
		ActorEmail:  guest.Email,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestResendInvitation_CooldownConflict(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	_, err := svc.ResendInvitation(context.Background(), ResendInput{
		EventID: event.EventID,
		Email:   "guest@example.com",
		OwnerID: owner.UserID,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestResendInvitation_AfterCooldown(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")

	stale := time.Now().Add(-25 * time.Hour)
	require.NoError(t, db.Model(&models.Invitation{}).
		Where("invite_id = ?", inv.InviteID).
		UpdateColumn("updated_at", stale).Error)

	got, err := svc.ResendInvitation(context.Background(), ResendInput{
		EventID: event.EventID,
		Email:   "GUEST@example.com",
		OwnerID: owner.UserID,
	})
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(stale))

	var logs []models.ActivityLog
	require.NoError(t, db.Where("action = ?", "resent_invitation").Find(&logs).Error)
	assert.Len(t, logs, 1)
}

func TestListEventInvitations_OwnerOnly(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "a@example.com", "AAAAA2")
	seedInvitation(t, db, event.EventID, "b@example.com", "BBBBB2")

	invs, err := svc.ListEventInvitations(context.Background(), event.EventID, owner.UserID)
	require.NoError(t, err)
	assert.Len(t, invs, 2)

	_, err = svc.ListEventInvitations(context.Background(), event.EventID, stranger.UserID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
