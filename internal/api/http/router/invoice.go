package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerInvoiceRoutes(
	api fiber.Router,
	h *handler.InvoiceHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	invoices := api.Group("/invoices")

	invoices.Get("/", requirePerm(authorize.ResourceInvoice, authorize.ActionRead), h.List)
	invoices.Post("/", requirePerm(authorize.ResourceInvoice, authorize.ActionCreate), h.Create)
	invoices.Get("/:number", requirePerm(authorize.ResourceInvoice, authorize.ActionRead), h.Get)
	invoices.Patch("/:number", requirePerm(authorize.ResourceInvoice, authorize.ActionUpdate), h.Update)
	invoices.Get("/:number/pdf", requirePerm(authorize.ResourceInvoice, authorize.ActionRead), h.PDF)
	invoices.Post("/:number/send", requirePerm(authorize.ResourceInvoice, authorize.ActionSend), h.Send)
	invoices.Post("/:number/pay", requirePerm(authorize.ResourcePayment, authorize.ActionCreate), h.Pay)

	// Voiding destroys the billing record, so it stays admin only.
	invoices.Delete("/:number", middleware.AdminOnly(), h.Void)
}
