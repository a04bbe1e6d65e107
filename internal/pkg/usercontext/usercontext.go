package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ikram-mever-codes/csb-backend/app/models"
)

// Shared Locals keys used across controllers and middlewares
const (
	KeyUser = "USER"
)

// SetUser stores the resolved principal's user on the request.
func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(KeyUser, user)
}

// GetUser retrieves the authenticated user from the request, or nil when
// the request is anonymous.
func GetUser(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(KeyUser).(*models.User); ok {
		return u
	}
	return nil
}

// GetUserID returns the current user's ID, or 0 if not logged in.
func GetUserID(c *fiber.Ctx) uint {
	if u := GetUser(c); u != nil {
		return u.ID
	}
	return 0
}

// IsAdmin checks if the current user is an admin.
func IsAdmin(c *fiber.Ctx) bool {
	u := GetUser(c)
	return u != nil && u.IsAdmin()
}
