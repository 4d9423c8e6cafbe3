package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	h *handler.PatientHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	patients := api.Group("/patients")

	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionRead), h.List)
	patients.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), h.Create)
	patients.Get("/:id", requirePerm(authorize.ResourcePatient, authorize.ActionRead), h.Get)
	patients.Patch("/:id", requirePerm(authorize.ResourcePatient, authorize.ActionUpdate), h.Update)
	patients.Delete("/:id", requirePerm(authorize.ResourcePatient, authorize.ActionDelete), h.Archive)
}
