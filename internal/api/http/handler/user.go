package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/user"
)

// UserHandler exposes staff account management endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return notFound(c, "user not found")
	case errors.Is(err, user.ErrDuplicate):
		return conflict(c, err.Error())
	case errors.Is(err, user.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, user.ErrLastAdmin):
		return unprocessable(c, err.Error())
	default:
		return internalError(c, err)
	}
}

func (h *UserHandler) List(c fiber.Ctx) error {
	req := user.ListRequest{
		Role:            c.Query("role"),
		IncludeInactive: c.Query("include_inactive") == "true",
	}
	users, err := h.svc.List(c.Context(), req)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, fiber.Map{"users": users, "total": len(users)})
}

func (h *UserHandler) Get(c fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	profile, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, fiber.Map{"user": profile})
}

// Me returns the authenticated user's own profile.
func (h *UserHandler) Me(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	profile, err := h.svc.GetByID(c.Context(), actor.UserID)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, fiber.Map{"user": profile})
}

// Providers lists active therapists for scheduling dropdowns.
func (h *UserHandler) Providers(c fiber.Ctx) error {
	providers, err := h.svc.Providers(c.Context())
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, fiber.Map{"providers": providers})
}

type updateUserBody struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
	Unlock   bool    `json:"unlock"`
}

func (h *UserHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	var body updateUserBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	profile, err := h.svc.Update(c.Context(), actor.UserID, string(actor.Role), id, user.UpdateRequest{
		Name:     body.Name,
		Email:    body.Email,
		Role:     body.Role,
		Active:   body.Active,
		Password: body.Password,
		Unlock:   body.Unlock,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, fiber.Map{"user": profile})
}

func (h *UserHandler) Deactivate(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	if err := h.svc.Deactivate(c.Context(), actor.UserID, string(actor.Role), id); err != nil {
		return mapUserError(c, err)
	}
	return message(c, "user deactivated")
}
