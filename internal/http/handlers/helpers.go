package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"mercadito/internal/domain"
)

// currentUser reads the user placed into locals by the session
// middleware or the authz guards.
func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func jsonErr(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
