package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/token"
)

const LocalActor = "auth.actor"

// AuthRequired validates a Bearer access token and stores both the raw claims
// and the resolved access.Actor in locals.
func AuthRequired(mgr *token.Manager) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.VerifyAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		if !authorize.ValidRole(claims.Role) {
			return fiber.ErrUnauthorized
		}

		c.Locals(token.CtxKeyClaims, claims)
		c.Locals(LocalActor, access.Actor{
			UserID:     userID,
			Role:       authorize.Role(claims.Role),
			EmployeeID: claims.EmployeeID,
			IPAddress:  c.IP(),
		})
		return c.Next()
	}
}

// ActorFromFiber retrieves the actor stored by AuthRequired.
func ActorFromFiber(c fiber.Ctx) (access.Actor, bool) {
	v := c.Locals(LocalActor)
	a, ok := v.(access.Actor)
	return a, ok
}
