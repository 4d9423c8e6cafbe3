package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerCatalogueRoutes(
	api fiber.Router,
	h *handler.CatalogueHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	services := api.Group("/services")

	services.Get("/", requirePerm(authorize.ResourceService, authorize.ActionRead), h.List)
	services.Post("/", requirePerm(authorize.ResourceService, authorize.ActionCreate), h.Create)
	services.Get("/:id", requirePerm(authorize.ResourceService, authorize.ActionRead), h.Get)
	services.Patch("/:id", requirePerm(authorize.ResourceService, authorize.ActionUpdate), h.Update)
	services.Delete("/:id", requirePerm(authorize.ResourceService, authorize.ActionDelete), h.Deactivate)
}
