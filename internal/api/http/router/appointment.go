package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	h *handler.AppointmentHandler,
	treatments *handler.CatalogueHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	appts := api.Group("/appointments")

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), h.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), h.Create)
	appts.Post("/complete", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), h.Outcome)
	// The booking form reads the treatment catalogue from here.
	appts.Get("/treatments", requirePerm(authorize.ResourceService, authorize.ActionRead), treatments.List)
	appts.Get("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), h.Get)
	appts.Patch("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), h.Update)
	appts.Delete("/:id", requirePerm(authorize.ResourceAppointment, authorize.ActionDelete), h.Delete)
	appts.Post("/:id/outcome", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), h.Outcome)
	appts.Put("/:id/treatment-notes", requirePerm(authorize.ResourceNote, authorize.ActionUpdate), h.SetTreatmentNotes)
	appts.Post("/:id/clinical-notes", requirePerm(authorize.ResourceNote, authorize.ActionCreate), h.AddClinicalNote)
}
