package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/catalogue"
)

// CatalogueHandler exposes the treatment catalogue endpoints.
type CatalogueHandler struct {
	svc catalogue.Service
}

func NewCatalogueHandler(svc catalogue.Service) *CatalogueHandler {
	return &CatalogueHandler{svc: svc}
}

func mapCatalogueError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalogue.ErrNotFound):
		return notFound(c, "treatment not found")
	case errors.Is(err, catalogue.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type treatmentBody struct {
	Description     string   `json:"description"`
	Price           *float64 `json:"price"`
	DurationMinutes *int     `json:"duration_minutes"`
	Active          *bool    `json:"active"`
	Notes           *string  `json:"notes"`
}

func (h *CatalogueHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body treatmentBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := catalogue.CreateRequest{Description: body.Description}
	if body.Price != nil {
		req.Price = *body.Price
	}
	if body.DurationMinutes != nil {
		req.DurationMinutes = *body.DurationMinutes
	}
	if body.Notes != nil {
		req.Notes = *body.Notes
	}
	treatment, err := h.svc.Create(c.Context(), actor, req)
	if err != nil {
		return mapCatalogueError(c, err)
	}
	return created(c, fiber.Map{"treatment": treatment})
}

func (h *CatalogueHandler) Get(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid treatment id")
	}
	treatment, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapCatalogueError(c, err)
	}
	return ok(c, fiber.Map{"treatment": treatment})
}

func (h *CatalogueHandler) List(c fiber.Ctx) error {
	treatments, err := h.svc.List(c.Context(), c.Query("include_inactive") == "true")
	if err != nil {
		return mapCatalogueError(c, err)
	}
	return ok(c, fiber.Map{"treatments": treatments, "total": len(treatments)})
}

func (h *CatalogueHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid treatment id")
	}
	var body treatmentBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := catalogue.UpdateRequest{
		Price:           body.Price,
		DurationMinutes: body.DurationMinutes,
		Active:          body.Active,
		Notes:           body.Notes,
	}
	if body.Description != "" {
		req.Description = &body.Description
	}
	treatment, err := h.svc.Update(c.Context(), actor, id, req)
	if err != nil {
		return mapCatalogueError(c, err)
	}
	return ok(c, fiber.Map{"treatment": treatment})
}

func (h *CatalogueHandler) Deactivate(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid treatment id")
	}
	if err := h.svc.Deactivate(c.Context(), actor, id); err != nil {
		return mapCatalogueError(c, err)
	}
	return message(c, "treatment deactivated")
}
