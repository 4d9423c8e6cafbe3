package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func (r *Router) registerNoteRoutes(
	api fiber.Router,
	h *handler.NoteHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	notes := api.Group("/notes")

	notes.Get("/", requirePerm(authorize.ResourceNote, authorize.ActionRead), h.List)
	notes.Post("/", requirePerm(authorize.ResourceNote, authorize.ActionCreate), h.Create)
	notes.Get("/:id", requirePerm(authorize.ResourceNote, authorize.ActionRead), h.Get)
	notes.Patch("/:id", requirePerm(authorize.ResourceNote, authorize.ActionUpdate), h.Update)
	notes.Delete("/:id", requirePerm(authorize.ResourceNote, authorize.ActionDelete), h.Delete)
}
