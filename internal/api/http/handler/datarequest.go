package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/datarequest"
)

// DataRequestHandler exposes data-subject request tracking endpoints.
type DataRequestHandler struct {
	svc datarequest.Service
}

func NewDataRequestHandler(svc datarequest.Service) *DataRequestHandler {
	return &DataRequestHandler{svc: svc}
}

func mapDataRequestError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, datarequest.ErrNotFound):
		return notFound(c, "data-subject request not found")
	case errors.Is(err, datarequest.ErrPatientNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, datarequest.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type createDataRequestBody struct {
	PatientID      int64      `json:"patient_id"`
	Type           string     `json:"type"`
	RequesterName  string     `json:"requester_name"`
	RequesterEmail string     `json:"requester_email"`
	ReceivedAt     *time.Time `json:"received_at"`
	Notes          string     `json:"notes"`
}

func (h *DataRequestHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body createDataRequestBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	row, err := h.svc.Create(c.Context(), actor, datarequest.CreateRequest{
		PatientID:      body.PatientID,
		Type:           body.Type,
		RequesterName:  body.RequesterName,
		RequesterEmail: body.RequesterEmail,
		ReceivedAt:     body.ReceivedAt,
		Notes:          body.Notes,
	})
	if err != nil {
		return mapDataRequestError(c, err)
	}
	return created(c, fiber.Map{"request": row})
}

func (h *DataRequestHandler) Get(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid request id")
	}
	row, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapDataRequestError(c, err)
	}
	return ok(c, fiber.Map{"request": row})
}

func (h *DataRequestHandler) List(c fiber.Ctx) error {
	var q struct {
		PatientID *int64 `query:"patient_id"`
		Status    string `query:"status"`
		Type      string `query:"type"`
		Overdue   bool   `query:"overdue"`
		Page      int    `query:"page"`
		PerPage   int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	rows, total, err := h.svc.List(c.Context(), datarequest.ListRequest{
		PatientID: q.PatientID,
		Status:    q.Status,
		Type:      q.Type,
		Overdue:   q.Overdue,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
	if err != nil {
		return mapDataRequestError(c, err)
	}
	return ok(c, fiber.Map{"requests": rows, "total": total})
}

type dataRequestStatusBody struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *DataRequestHandler) SetStatus(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid request id")
	}
	var body dataRequestStatusBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	row, err := h.svc.SetStatus(c.Context(), actor, id, datarequest.StatusRequest{
		Status: body.Status,
		Note:   body.Note,
	})
	if err != nil {
		return mapDataRequestError(c, err)
	}
	return ok(c, fiber.Map{"request": row})
}
