package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/note"
)

// NoteHandler exposes standalone patient note endpoints.
type NoteHandler struct {
	svc note.Service
}

func NewNoteHandler(svc note.Service) *NoteHandler {
	return &NoteHandler{svc: svc}
}

func mapNoteError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, note.ErrNotFound):
		return notFound(c, "note not found")
	case errors.Is(err, note.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, access.ErrOutOfScope):
		return forbidden(c, "note is outside your caseload")
	case errors.Is(err, note.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type attachmentBody struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
}

type createNoteBody struct {
	PatientID     int64            `json:"patient_id"`
	AppointmentID *int64           `json:"appointment_id"`
	Type          string           `json:"type"`
	Note          string           `json:"note"`
	Visibility    string           `json:"visibility"`
	Date          *time.Time       `json:"date"`
	Attachments   []attachmentBody `json:"attachments"`
}

func (h *NoteHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body createNoteBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := note.CreateRequest{
		PatientID:     body.PatientID,
		AppointmentID: body.AppointmentID,
		Type:          body.Type,
		Note:          body.Note,
		Visibility:    body.Visibility,
		Date:          body.Date,
	}
	for _, a := range body.Attachments {
		req.Attachments = append(req.Attachments, model.NoteAttachment{
			FileName: a.FileName,
			FileURL:  a.FileURL,
		})
	}
	view, err := h.svc.Create(c.Context(), actor, req)
	if err != nil {
		return mapNoteError(c, err)
	}
	return created(c, fiber.Map{"note": view})
}

func (h *NoteHandler) Get(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	view, err := h.svc.GetByID(c.Context(), actor, c.Params("id"))
	if err != nil {
		return mapNoteError(c, err)
	}
	return ok(c, fiber.Map{"note": view})
}

func (h *NoteHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		PatientID     *int64 `query:"patient_id"`
		AppointmentID *int64 `query:"appointment_id"`
		Type          string `query:"type"`
		Page          int    `query:"page"`
		PerPage       int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	views, total, err := h.svc.List(c.Context(), actor, note.ListRequest{
		PatientID:     q.PatientID,
		AppointmentID: q.AppointmentID,
		Type:          q.Type,
		Page:          q.Page,
		PerPage:       q.PerPage,
	})
	if err != nil {
		return mapNoteError(c, err)
	}
	return ok(c, fiber.Map{"notes": views, "total": total})
}

type updateNoteBody struct {
	Note       *string    `json:"note"`
	Type       *string    `json:"type"`
	Visibility *string    `json:"visibility"`
	Date       *time.Time `json:"date"`
}

func (h *NoteHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body updateNoteBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.Update(c.Context(), actor, c.Params("id"), note.UpdateRequest{
		Note:       body.Note,
		Type:       body.Type,
		Visibility: body.Visibility,
		Date:       body.Date,
	})
	if err != nil {
		return mapNoteError(c, err)
	}
	return ok(c, fiber.Map{"note": view})
}

func (h *NoteHandler) Delete(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	if err := h.svc.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return mapNoteError(c, err)
	}
	return message(c, "note deleted")
}
