package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

// RequirePermission enforces the role/resource/action policy for the
// authenticated actor.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		if err := auth.MustEnforce(c.Context(), actor.Role, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}
		return c.Next()
	}
}

// AdminOnly short-circuits routes reserved for administrators.
func AdminOnly() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if actor.Role != authorize.RoleAdmin {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
