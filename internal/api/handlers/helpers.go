package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// The dashboard runs single-user today; requests without an explicit
// user_id fall back to the default identity.
const DefaultUserID = "default_user"

func GetUserID(c *fiber.Ctx) string {
	userID := c.Query("user_id")
	if userID == "" {
		return DefaultUserID
	}
	return userID
}
