package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Actor is the authenticated identity extracted from the session, passed
// explicitly into services so workflows stay testable without a session.
type Actor struct {
	UserID   uuid.UUID
	Fullname string
	Email    string
}

// CurrentActor returns the session actor, or nil if not logged in or the
// session shape is unusable.
func CurrentActor(c *fiber.Ctx) *Actor {
	u := GetUser(c)
	if u == nil {
		return nil
	}
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	idStr, _ := m["user_id"].(string)
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}
	fullname, _ := m["fullname"].(string)
	email, _ := m["email"].(string)
	return &Actor{UserID: userID, Fullname: fullname, Email: email}
}
