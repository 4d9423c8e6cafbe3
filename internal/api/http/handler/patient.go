package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/patient"
)

// PatientHandler exposes patient record endpoints.
type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return notFound(c, "patient not found")
	case errors.Is(err, access.ErrOutOfScope):
		return forbidden(c, "patient is outside your caseload")
	case errors.Is(err, patient.ErrValidation),
		errors.Is(err, patient.ErrInvalidPhone),
		errors.Is(err, patient.ErrPartialContact),
		errors.Is(err, patient.ErrInvalidStatus),
		errors.Is(err, patient.ErrInvalidBillingMode):
		return badRequest(c, err.Error())
	case errors.Is(err, patient.ErrTherapistNotFound):
		return unprocessable(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type addressBody struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type patientBody struct {
	FirstName      string `json:"first_name"`
	Surname        string `json:"surname"`
	PreferredName  string `json:"preferred_name"`
	DateOfBirth    string `json:"date_of_birth"`
	Gender         string `json:"gender"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SecondaryPhone string `json:"secondary_phone"`

	PrimaryContactName  string `json:"primary_contact_name"`
	PrimaryContactEmail string `json:"primary_contact_email"`
	PrimaryContactPhone string `json:"primary_contact_phone"`

	Address            *addressBody `json:"address"`
	PrimaryTherapistID *int64       `json:"primary_therapist_id"`
	BillingMode        string       `json:"billing_mode"`
	Status             string       `json:"status"`
	EmailActive        *bool        `json:"email_active"`
	Tags               []string     `json:"tags"`
	MedicalAlerts      []string     `json:"medical_alerts"`
	NotesSummary       string       `json:"notes_summary"`
}

func (b patientBody) toRequest() patient.CreateRequest {
	req := patient.CreateRequest{
		FirstName:           b.FirstName,
		Surname:             b.Surname,
		PreferredName:       b.PreferredName,
		DateOfBirth:         b.DateOfBirth,
		Gender:              b.Gender,
		Email:               b.Email,
		Phone:               b.Phone,
		SecondaryPhone:      b.SecondaryPhone,
		PrimaryContactName:  b.PrimaryContactName,
		PrimaryContactEmail: b.PrimaryContactEmail,
		PrimaryContactPhone: b.PrimaryContactPhone,
		PrimaryTherapistID:  b.PrimaryTherapistID,
		BillingMode:         b.BillingMode,
		Status:              b.Status,
		EmailActive:         b.EmailActive,
		Tags:                b.Tags,
		MedicalAlerts:       b.MedicalAlerts,
		NotesSummary:        b.NotesSummary,
	}
	if b.Address != nil {
		req.Address = &patient.AddressInput{
			Line1:    b.Address.Line1,
			Line2:    b.Address.Line2,
			City:     b.Address.City,
			Postcode: b.Address.Postcode,
			Country:  b.Address.Country,
		}
	}
	return req
}

func (h *PatientHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body patientBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.Create(c.Context(), actor, body.toRequest())
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, fiber.Map{"patient": view})
}

func (h *PatientHandler) Get(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	patientID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid patient id")
	}
	view, err := h.svc.GetByID(c.Context(), actor, patientID)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, fiber.Map{"patient": view})
}

func (h *PatientHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		Status          string `query:"status"`
		IncludeArchived bool   `query:"include_archived"`
		Page            int    `query:"page"`
		PerPage         int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	views, total, err := h.svc.List(c.Context(), actor, patient.ListRequest{
		Status:          q.Status,
		IncludeArchived: q.IncludeArchived,
		Page:            q.Page,
		PerPage:         q.PerPage,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, fiber.Map{"patients": views, "total": total})
}

func (h *PatientHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	patientID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid patient id")
	}
	var body patientBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.Update(c.Context(), actor, patientID, body.toRequest())
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, fiber.Map{"patient": view})
}

func (h *PatientHandler) Archive(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	patientID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid patient id")
	}
	if err := h.svc.Archive(c.Context(), actor, patientID); err != nil {
		return mapPatientError(c, err)
	}
	return message(c, "patient archived")
}
