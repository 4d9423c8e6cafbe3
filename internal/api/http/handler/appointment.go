package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/appointment"
)

// AppointmentHandler exposes scheduling and outcome endpoints.
type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, "appointment not found")
	case errors.Is(err, appointment.ErrPatientNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, appointment.ErrTherapistNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, access.ErrOutOfScope):
		return forbidden(c, "appointment is outside your caseload")
	case errors.Is(err, appointment.ErrValidation),
		errors.Is(err, appointment.ErrInvalidOutcome),
		errors.Is(err, appointment.ErrNoteRequired):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type recurrenceBody struct {
	Frequency  string `json:"frequency"`
	Interval   int    `json:"interval"`
	Count      int    `json:"count"`
	DaysOfWeek []int  `json:"days_of_week"`
}

type createAppointmentBody struct {
	PatientID       int64     `json:"patient_id"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	Room            string    `json:"room"`

	TherapistID string `json:"therapist_id"`
	EmployeeID  *int64 `json:"employeeID"`

	TreatmentID          *int64   `json:"treatment_id"`
	TreatmentDescription string   `json:"treatment_description"`
	TreatmentCount       int      `json:"treatment_count"`
	Price                *float64 `json:"price"`

	Recurrence            *recurrenceBody `json:"recurrence"`
	SendConfirmationEmail *bool           `json:"send_confirmation_email"`
}

func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body createAppointmentBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := appointment.CreateRequest{
		PatientID:             body.PatientID,
		Date:                  body.Date,
		DurationMinutes:       body.DurationMinutes,
		Location:              body.Location,
		Room:                  body.Room,
		TherapistID:           body.TherapistID,
		EmployeeID:            body.EmployeeID,
		TreatmentID:           body.TreatmentID,
		TreatmentDescription:  body.TreatmentDescription,
		TreatmentCount:        body.TreatmentCount,
		Price:                 body.Price,
		SendConfirmationEmail: body.SendConfirmationEmail,
	}
	if body.Recurrence != nil {
		req.Recurrence = &appointment.RecurrenceInput{
			Frequency:  body.Recurrence.Frequency,
			Interval:   body.Recurrence.Interval,
			Count:      body.Recurrence.Count,
			DaysOfWeek: body.Recurrence.DaysOfWeek,
		}
	}
	views, err := h.svc.Create(c.Context(), actor, req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, fiber.Map{"appointments": views, "total": len(views)})
}

func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}
	view, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{"appointment": view})
}

func (h *AppointmentHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		PatientID  *int64 `query:"patient_id"`
		EmployeeID *int64 `query:"employeeID"`
		SeriesID   string `query:"series_id"`
		Status     string `query:"status"`
		From       string `query:"from"`
		To         string `query:"to"`
		Page       int    `query:"page"`
		PerPage    int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	req := appointment.ListRequest{
		PatientID:  q.PatientID,
		EmployeeID: q.EmployeeID,
		SeriesID:   q.SeriesID,
		Status:     q.Status,
		Page:       q.Page,
		PerPage:    q.PerPage,
	}
	if t, err := time.Parse("2006-01-02", q.From); err == nil {
		req.From = &t
	}
	if t, err := time.Parse("2006-01-02", q.To); err == nil {
		end := t.AddDate(0, 0, 1)
		req.To = &end
	}
	views, total, err := h.svc.List(c.Context(), actor, req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{"appointments": views, "total": total})
}

type updateAppointmentBody struct {
	Date            *time.Time `json:"date"`
	DurationMinutes *int       `json:"duration_minutes"`
	Location        *string    `json:"location"`
	Room            *string    `json:"room"`
	EmployeeID      *int64     `json:"employeeID"`
	TreatmentID     *int64     `json:"treatment_id"`
	Description     *string    `json:"treatment_description"`
	TreatmentCount  *int       `json:"treatment_count"`
	Price           *float64   `json:"price"`
}

func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}
	var body updateAppointmentBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.Update(c.Context(), actor, id, appointment.UpdateRequest{
		Date:            body.Date,
		DurationMinutes: body.DurationMinutes,
		Location:        body.Location,
		Room:            body.Room,
		EmployeeID:      body.EmployeeID,
		TreatmentID:     body.TreatmentID,
		Description:     body.Description,
		TreatmentCount:  body.TreatmentCount,
		Price:           body.Price,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{"appointment": view})
}

func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}
	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapAppointmentError(c, err)
	}
	return message(c, "appointment deleted")
}

type outcomeBody struct {
	AppointmentID int64  `json:"appointment_id"`
	Outcome       string `json:"outcome"`
	Note          string `json:"note"`
}

// Outcome records a completion or cancellation. The billing side effect,
// when one applies, is reported back in the response.
func (h *AppointmentHandler) Outcome(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body outcomeBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.AppointmentID == 0 {
		if id, err := strconv.ParseInt(c.Params("id"), 10, 64); err == nil {
			body.AppointmentID = id
		}
	}
	result, err := h.svc.Outcome(c.Context(), actor, appointment.OutcomeRequest{
		AppointmentID: body.AppointmentID,
		Outcome:       body.Outcome,
		Note:          body.Note,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	resp := fiber.Map{"appointment": result.Appointment}
	if result.InvoiceNumber != "" {
		resp["invoice_number"] = result.InvoiceNumber
		resp["invoice_total"] = result.InvoiceTotal
	}
	return ok(c, resp)
}

type treatmentNotesBody struct {
	Notes string `json:"notes"`
}

func (h *AppointmentHandler) SetTreatmentNotes(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}
	var body treatmentNotesBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.SetTreatmentNotes(c.Context(), actor, id, body.Notes)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{"appointment": view})
}

type clinicalNoteBody struct {
	Text string `json:"text"`
}

func (h *AppointmentHandler) AddClinicalNote(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}
	var body clinicalNoteBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.AddClinicalNote(c.Context(), actor, id, body.Text)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, fiber.Map{"appointment": view})
}
