package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RequireAuthenticated creates Fiber middleware that rejects requests while
// no actor is signed in. While backends are still resolving it answers 503 so
// clients retry instead of treating startup as signed out.
func RequireAuthenticated(rec *Reconciler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := rec.State()

		if state.Loading {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Authentication state still resolving")
		}

		if !state.IsAuthenticated {
			log.Warn().Str("path", c.Path()).Msg("rejecting unauthenticated request")

			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(rec *Reconciler, permission Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := rec.State()

		if state.Loading {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Authentication state still resolving")
		}

		if !state.IsAuthenticated {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		if !rec.HasPermission(permission) {
			log.Warn().Str("authMode", string(state.AuthMode)).Str("permission", string(permission)).
				Msg("actor lacks required permission")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}
