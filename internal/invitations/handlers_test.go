package invitations

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"gatherly-backend/internal/models"
	"gatherly-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvitationsApp(svc *Service, actor *models.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if actor != nil {
			c.Locals("user", map[string]interface{}{
				"user_id":  actor.UserID.String(),
				"fullname": actor.Fullname,
				"email":    actor.Email,
			})
		}
		return c.Next()
	})
	h := &Handlers{Service: svc}
	app.Post("/api/v1/invitations/create-invitation", h.CreateInvitation)
	app.Post("/api/v1/invitations/public/resolve", h.Resolve)
	app.Post("/api/v1/invitations/respond", h.Respond)
	app.Post("/api/v1/invitations/resend-invitation", h.ResendInvitation)
	app.Get("/api/v1/invitations/event/:event_id", h.ListEventInvitations)
	return app
}

func doJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, *response.SuccessBody, *response.ErrorBody) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	payload, _ := json.Marshal(raw)
	if resp.StatusCode < 400 {
		var ok response.SuccessBody
		require.NoError(t, json.Unmarshal(payload, &ok))
		return resp.StatusCode, &ok, nil
	}
	var fail response.ErrorBody
	require.NoError(t, json.Unmarshal(payload, &fail))
	return resp.StatusCode, nil, &fail
}

func TestCreateInvitationHandler(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	app := newInvitationsApp(svc, owner)

	status, ok, _ := doJSON(t, app, "/api/v1/invitations/create-invitation", fiber.Map{
		"event_id": event.EventID.String(),
		"email":    "guest@example.com",
	})
	require.Equal(t, 201, status)
	data, isMap := ok.Data.(map[string]interface{})
	require.True(t, isMap)
	shortCode, _ := data["short_code"].(string)
	assert.Len(t, shortCode, 6)
}

func TestCreateInvitationHandler_Duplicate409(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "AAAAAA")
	app := newInvitationsApp(svc, owner)

	status, _, fail := doJSON(t, app, "/api/v1/invitations/create-invitation", fiber.Map{
		"event_id": event.EventID.String(),
		"email":    "guest@example.com",
	})
	assert.Equal(t, 409, status)
	require.NotNil(t, fail)
	assert.Equal(t, "error", fail.Status)
}

func TestResolveHandler_NoSessionNeeded(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")
	app := newInvitationsApp(svc, nil)

	status, ok, _ := doJSON(t, app, "/api/v1/invitations/public/resolve", fiber.Map{"token": "QRSTUV"})
	require.Equal(t, 200, status)
	data, isMap := ok.Data.(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, "short_code", data["matched_by"])
}

func TestRespondHandler_WrongEmailDetails(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")
	app := newInvitationsApp(svc, intruder)

	status, _, fail := doJSON(t, app, "/api/v1/invitations/respond", fiber.Map{
		"token":    "QRSTUV",
		"response": "yes",
	})
	assert.Equal(t, 403, status)
	require.NotNil(t, fail)
	details, isMap := fail.Error.Details.(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, "guest@example.com", details["invitation_email"])
}

func TestRespondHandler_Success(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	guest := seedUser(t, db, "guest@example.com")
	event := seedEvent(t, db, owner.UserID)
	inv := seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")
	app := newInvitationsApp(svc, guest)

	status, _, _ := doJSON(t, app, "/api/v1/invitations/respond", fiber.Map{
		"token":    inv.InviteID.String(),
		"response": "no",
	})
	assert.Equal(t, 200, status)

	var got models.Invitation
	require.NoError(t, db.First(&got, "invite_id = ?", inv.InviteID).Error)
	assert.Equal(t, models.StatusNo, got.Status)
}

func TestRespondHandler_NoSession401(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "guest@example.com", "QRSTUV")
	app := newInvitationsApp(svc, nil)

	status, _, _ := doJSON(t, app, "/api/v1/invitations/respond", fiber.Map{
		"token":    "QRSTUV",
		"response": "yes",
	})
	assert.Equal(t, 401, status)
}

func TestListEventInvitationsHandler(t *testing.T) {
	svc, db := setupInvitationsTest(t)
	owner := seedUser(t, db, "owner@example.com")
	event := seedEvent(t, db, owner.UserID)
	seedInvitation(t, db, event.EventID, "a@example.com", "AAAAA2")
	seedInvitation(t, db, event.EventID, "b@example.com", "BBBBB2")
	app := newInvitationsApp(svc, owner)

	req := httptest.NewRequest("GET", "/api/v1/invitations/event/"+event.EventID.String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var ok response.SuccessBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	list, isList := ok.Data.([]interface{})
	require.True(t, isList)
	assert.Len(t, list, 2)
}
