package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerCommunicationRoutes(
	api fiber.Router,
	h *handler.CommunicationHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	comms := api.Group("/communications")

	comms.Get("/", requirePerm(authorize.ResourceCommunication, authorize.ActionRead), h.List)
}
