package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "mercadito/internal/log"
	"mercadito/internal/services"
)

// RequireUser enforces a logged-in session for cart and order routes.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return jsonErr(c, fiber.StatusUnauthorized, "login required")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return jsonErr(c, fiber.StatusUnauthorized, "login required")
		}
		c.Locals("user", u)
		c.Locals("uid", u.ID)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return jsonErr(c, fiber.StatusUnauthorized, "login required")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || u.Role != "ADMIN" {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return jsonErr(c, fiber.StatusForbidden, "access denied")
		}
		c.Locals("user", u)
		c.Locals("uid", u.ID)
		return c.Next()
	}
}
