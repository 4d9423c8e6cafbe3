package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerReportRoutes(
	api fiber.Router,
	h *handler.ReportHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	reports := api.Group("/reports")
	reports.Get("/dashboard", requirePerm(authorize.ResourceReport, authorize.ActionRead), h.Dashboard)
}

func (r *Router) registerDataRequestRoutes(
	api fiber.Router,
	h *handler.DataRequestHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	requests := api.Group("/data-requests")

	requests.Get("/", requirePerm(authorize.ResourceDataRequest, authorize.ActionRead), h.List)
	requests.Post("/", requirePerm(authorize.ResourceDataRequest, authorize.ActionCreate), h.Create)
	requests.Get("/:id", requirePerm(authorize.ResourceDataRequest, authorize.ActionRead), h.Get)
	requests.Patch("/:id/status", requirePerm(authorize.ResourceDataRequest, authorize.ActionUpdate), h.SetStatus)
}

func (r *Router) registerProfitLossRoutes(
	api fiber.Router,
	h *handler.ProfitLossHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	ledger := api.Group("/profit-loss")

	ledger.Get("/", requirePerm(authorize.ResourceProfitLoss, authorize.ActionRead), h.List)
	ledger.Post("/", requirePerm(authorize.ResourceProfitLoss, authorize.ActionCreate), h.Create)
	ledger.Get("/summary", requirePerm(authorize.ResourceProfitLoss, authorize.ActionRead), h.Summary)
	ledger.Delete("/:id", requirePerm(authorize.ResourceProfitLoss, authorize.ActionDelete), h.Delete)
}

func (r *Router) registerAuditRoutes(api fiber.Router, h *handler.AuditHandler) {
	audit := api.Group("/audit", middleware.AdminOnly())
	audit.Get("/", h.List)
}
