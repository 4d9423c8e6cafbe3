package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/invoice"
	"github.com/bridgesphysio/bridges_backend/internal/service/payment"
)

// InvoiceHandler exposes billing endpoints. Recording a payment against an
// invoice is delegated to the payment service.
type InvoiceHandler struct {
	svc      invoice.Service
	payments payment.Service
}

func NewInvoiceHandler(svc invoice.Service, payments payment.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, payments: payments}
}

func mapInvoiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		return notFound(c, "invoice not found")
	case errors.Is(err, invoice.ErrPatientNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, access.ErrOutOfScope):
		return forbidden(c, "invoice is outside your caseload")
	case errors.Is(err, invoice.ErrNoLineItems),
		errors.Is(err, invoice.ErrAppointmentMismatch):
		return badRequest(c, err.Error())
	case errors.Is(err, invoice.ErrAppointmentBilled):
		return conflict(c, err.Error())
	case errors.Is(err, invoice.ErrVoid):
		return unprocessable(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type lineItemBody struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	DiscountAmount float64 `json:"discount_amount"`
	AppointmentID  *int64  `json:"appointment_id"`
	ServiceDate    string  `json:"service_date"`
	Notes          string  `json:"notes"`
}

type discountBody struct {
	InvoiceAmount float64 `json:"invoice_amount"`
	Notes         string  `json:"notes"`
}

type billingContactBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func toLineInputs(lines []lineItemBody) []invoice.LineInput {
	out := make([]invoice.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, invoice.LineInput{
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			AppointmentID:  l.AppointmentID,
			ServiceDate:    l.ServiceDate,
			Notes:          l.Notes,
		})
	}
	return out
}

type createInvoiceBody struct {
	PatientID      int64               `json:"patient_id"`
	AppointmentID  *int64              `json:"appointment_id"`
	AppointmentIDs []int64             `json:"appointment_ids"`
	LineItems      []lineItemBody      `json:"line_items"`
	Discount       *discountBody       `json:"discount"`
	BillingContact *billingContactBody `json:"billing_contact"`
	IssueDate      string              `json:"issue_date"`
	DueDate        string              `json:"due_date"`
	Currency       string              `json:"currency"`
	Notes          string              `json:"notes"`
	SendEmail      bool                `json:"send_email"`
}

func (h *InvoiceHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body createInvoiceBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := invoice.CreateRequest{
		PatientID:      body.PatientID,
		AppointmentID:  body.AppointmentID,
		AppointmentIDs: body.AppointmentIDs,
		LineItems:      toLineInputs(body.LineItems),
		IssueDate:      body.IssueDate,
		DueDate:        body.DueDate,
		Currency:       body.Currency,
		Notes:          body.Notes,
		SendEmail:      body.SendEmail,
	}
	if body.Discount != nil {
		req.Discount = invoice.DiscountInput{
			InvoiceAmount: body.Discount.InvoiceAmount,
			Notes:         body.Discount.Notes,
		}
	}
	if body.BillingContact != nil {
		req.BillingContact = &invoice.BillingContactInput{
			Name:  body.BillingContact.Name,
			Email: body.BillingContact.Email,
			Phone: body.BillingContact.Phone,
		}
	}
	view, err := h.svc.Create(c.Context(), actor, req)
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return created(c, fiber.Map{"invoice": view})
}

func (h *InvoiceHandler) Get(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	view, err := h.svc.GetByNumber(c.Context(), actor, c.Params("number"))
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, fiber.Map{"invoice": view})
}

func (h *InvoiceHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		PatientID     *int64 `query:"patient_id"`
		Status        string `query:"status"`
		AppointmentID *int64 `query:"appointment_id"`
		Page          int    `query:"page"`
		PerPage       int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	views, total, err := h.svc.List(c.Context(), actor, invoice.ListRequest{
		PatientID:     q.PatientID,
		Status:        q.Status,
		AppointmentID: q.AppointmentID,
		Page:          q.Page,
		PerPage:       q.PerPage,
	})
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, fiber.Map{"invoices": views, "total": total})
}

type updateInvoiceBody struct {
	LineItems      []lineItemBody      `json:"line_items"`
	Discount       *discountBody       `json:"discount"`
	BillingContact *billingContactBody `json:"billing_contact"`
	DueDate        *string             `json:"due_date"`
	Notes          *string             `json:"notes"`
}

func (h *InvoiceHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body updateInvoiceBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := invoice.UpdateRequest{
		LineItems: toLineInputs(body.LineItems),
		DueDate:   body.DueDate,
		Notes:     body.Notes,
	}
	if body.Discount != nil {
		req.Discount = &invoice.DiscountInput{
			InvoiceAmount: body.Discount.InvoiceAmount,
			Notes:         body.Discount.Notes,
		}
	}
	if body.BillingContact != nil {
		req.BillingContact = &invoice.BillingContactInput{
			Name:  body.BillingContact.Name,
			Email: body.BillingContact.Email,
			Phone: body.BillingContact.Phone,
		}
	}
	view, err := h.svc.Update(c.Context(), actor, c.Params("number"), req)
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, fiber.Map{"invoice": view})
}

func (h *InvoiceHandler) Send(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	view, err := h.svc.Send(c.Context(), actor, c.Params("number"))
	if err != nil {
		return mapInvoiceError(c, err)
	}
	return ok(c, fiber.Map{"invoice": view})
}

func (h *InvoiceHandler) Void(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	if err := h.svc.Void(c.Context(), actor, c.Params("number")); err != nil {
		return mapInvoiceError(c, err)
	}
	return message(c, "invoice voided")
}

// PDF streams the rendered invoice document.
func (h *InvoiceHandler) PDF(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	data, filename, err := h.svc.PDF(c.Context(), actor, c.Params("number"))
	if err != nil {
		return mapInvoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(data)
}

type payInvoiceBody struct {
	Amount    *float64 `json:"amount"`
	Method    string   `json:"method"`
	Reference string   `json:"reference"`
	Notes     string   `json:"notes"`
}

// Pay records a payment against the invoice, defaulting to the outstanding
// balance when no amount is given.
func (h *InvoiceHandler) Pay(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body payInvoiceBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.payments.PayInvoice(c.Context(), actor, c.Params("number"), payment.PayRequest{
		Amount:    body.Amount,
		Method:    body.Method,
		Reference: body.Reference,
		Notes:     body.Notes,
	})
	if err != nil {
		return mapPaymentError(c, err)
	}
	return created(c, fiber.Map{"payment": view})
}
