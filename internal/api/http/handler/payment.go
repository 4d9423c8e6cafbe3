package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/payment"
)

// PaymentHandler exposes payment record endpoints.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func mapPaymentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return notFound(c, "payment not found")
	case errors.Is(err, payment.ErrInvoiceNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, access.ErrOutOfScope):
		return forbidden(c, "payment is outside your caseload")
	case errors.Is(err, payment.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, payment.ErrVoidInvoice),
		errors.Is(err, payment.ErrNothingDue):
		return unprocessable(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type createPaymentBody struct {
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceID     *int64  `json:"invoice_id"`
	AppointmentID *int64  `json:"appointment_id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	PaymentDate   string  `json:"payment_date"`
	Reference     string  `json:"reference"`
	Notes         string  `json:"notes"`
}

func (h *PaymentHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body createPaymentBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.Create(c.Context(), actor, payment.CreateRequest{
		InvoiceNumber: body.InvoiceNumber,
		InvoiceID:     body.InvoiceID,
		AppointmentID: body.AppointmentID,
		Amount:        body.Amount,
		Method:        body.Method,
		Status:        body.Status,
		PaymentDate:   body.PaymentDate,
		Reference:     body.Reference,
		Notes:         body.Notes,
	})
	if err != nil {
		return mapPaymentError(c, err)
	}
	return created(c, fiber.Map{"payment": view})
}

func (h *PaymentHandler) Get(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid payment id")
	}
	view, err := h.svc.GetByID(c.Context(), actor, id)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return ok(c, fiber.Map{"payment": view})
}

func (h *PaymentHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		PatientID     *int64 `query:"patient_id"`
		AppointmentID *int64 `query:"appointment_id"`
		InvoiceID     *int64 `query:"invoice_id"`
		InvoiceNumber string `query:"invoice_number"`
		Method        string `query:"method"`
		Status        string `query:"status"`
		From          string `query:"from"`
		To            string `query:"to"`
		Page          int    `query:"page"`
		PerPage       int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	req := payment.ListRequest{
		PatientID:     q.PatientID,
		AppointmentID: q.AppointmentID,
		InvoiceID:     q.InvoiceID,
		InvoiceNumber: q.InvoiceNumber,
		Method:        q.Method,
		Status:        q.Status,
		Page:          q.Page,
		PerPage:       q.PerPage,
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
		return mapPaymentError(c, err)
	}
	return ok(c, fiber.Map{"payments": views, "total": total})
}

type updatePaymentBody struct {
	Amount      *float64 `json:"amount"`
	Method      *string  `json:"method"`
	Status      *string  `json:"status"`
	PaymentDate *string  `json:"payment_date"`
	Reference   *string  `json:"reference"`
	Notes       *string  `json:"notes"`
}

func (h *PaymentHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid payment id")
	}
	var body updatePaymentBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.svc.Update(c.Context(), actor, id, payment.UpdateRequest{
		Amount:      body.Amount,
		Method:      body.Method,
		Status:      body.Status,
		PaymentDate: body.PaymentDate,
		Reference:   body.Reference,
		Notes:       body.Notes,
	})
	if err != nil {
		return mapPaymentError(c, err)
	}
	return ok(c, fiber.Map{"payment": view})
}

func (h *PaymentHandler) Delete(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid payment id")
	}
	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapPaymentError(c, err)
	}
	return message(c, "payment deleted")
}
