package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/internal/service/settings"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerSettingsRoutes(
	api fiber.Router,
	h *handler.SettingsHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	group := api.Group("/settings")

	group.Get("/clinic", requirePerm(authorize.ResourceSettings, authorize.ActionRead), h.Get)
	group.Patch("/clinic", requirePerm(authorize.ResourceSettings, authorize.ActionUpdate), h.Update)
	group.Get("/email-templates/:name/preview", requirePerm(authorize.ResourceSettings, authorize.ActionRead), h.PreviewTemplate)
	group.Post("/test-emails", requirePerm(authorize.ResourceSettings, authorize.ActionUpdate), h.SendTestEmail)

	availability := group.Group("/availability")
	availability.Get("/", requirePerm(authorize.ResourceAvailability, authorize.ActionRead), h.ListAvailability)
	availability.Post("/", requirePerm(authorize.ResourceAvailability, authorize.ActionCreate), h.CreateAvailability)
	availability.Patch("/:id", requirePerm(authorize.ResourceAvailability, authorize.ActionUpdate), h.UpdateAvailability)
	availability.Delete("/:id", requirePerm(authorize.ResourceAvailability, authorize.ActionDelete), h.DeleteAvailability)

	for path, collection := range map[string]string{
		"/gp-letter-templates":      settings.GPLetterTemplates,
		"/treatment-note-templates": settings.TreatmentNoteTemplates,
	} {
		templates := api.Group(path)
		templates.Get("/", requirePerm(authorize.ResourceTemplate, authorize.ActionRead), h.ListTemplates(collection))
		templates.Post("/", requirePerm(authorize.ResourceTemplate, authorize.ActionCreate), h.CreateTemplate(collection))
		templates.Patch("/:id", requirePerm(authorize.ResourceTemplate, authorize.ActionUpdate), h.UpdateTemplate(collection))
		templates.Delete("/:id", requirePerm(authorize.ResourceTemplate, authorize.ActionDelete), h.ArchiveTemplate(collection))
	}
}
