package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerPaymentRoutes(
	api fiber.Router,
	h *handler.PaymentHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	payments := api.Group("/payments")

	payments.Get("/", requirePerm(authorize.ResourcePayment, authorize.ActionRead), h.List)
	payments.Post("/", requirePerm(authorize.ResourcePayment, authorize.ActionCreate), h.Create)
	payments.Get("/:id", requirePerm(authorize.ResourcePayment, authorize.ActionRead), h.Get)
	payments.Patch("/:id", requirePerm(authorize.ResourcePayment, authorize.ActionUpdate), h.Update)
	payments.Delete("/:id", requirePerm(authorize.ResourcePayment, authorize.ActionDelete), h.Delete)
}
