package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(
	api fiber.Router,
	h *handler.UserHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	users := api.Group("/users")

	users.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionRead), h.List)
	users.Get("/me", h.Me)
	users.Get("/providers", h.Providers)
	users.Get("/:id", requirePerm(authorize.ResourceUser, authorize.ActionRead), h.Get)
	users.Patch("/:id", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), h.Update)
	users.Delete("/:id", requirePerm(authorize.ResourceUser, authorize.ActionDelete), h.Deactivate)
}
