package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerReceiptRoutes(
	api fiber.Router,
	h *handler.ReceiptHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	receipts := api.Group("/receipts")

	receipts.Get("/", requirePerm(authorize.ResourceReceipt, authorize.ActionRead), h.List)
	receipts.Post("/backfill", requirePerm(authorize.ResourceReceipt, authorize.ActionCreate), h.Backfill)
	receipts.Post("/by-payment/:id/send", requirePerm(authorize.ResourceReceipt, authorize.ActionSend), h.SendByPayment)
	receipts.Get("/:number", requirePerm(authorize.ResourceReceipt, authorize.ActionRead), h.Get)
	receipts.Get("/:number/pdf", requirePerm(authorize.ResourceReceipt, authorize.ActionRead), h.PDF)
	receipts.Post("/:number/send", requirePerm(authorize.ResourceReceipt, authorize.ActionSend), h.Send)
}
