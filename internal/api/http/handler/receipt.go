package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/receipt"
)

// ReceiptHandler exposes receipt lookup and delivery endpoints. Creation is
// automatic on payment, so only read, send and backfill are routed.
type ReceiptHandler struct {
	svc receipt.Service
}

func NewReceiptHandler(svc receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{svc: svc}
}

func mapReceiptError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, receipt.ErrNotFound):
		return notFound(c, "receipt not found")
	case errors.Is(err, access.ErrOutOfScope):
		return forbidden(c, "receipt is outside your caseload")
	default:
		return internalError(c, err)
	}
}

func (h *ReceiptHandler) Get(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	view, err := h.svc.GetByNumber(c.Context(), actor, c.Params("number"))
	if err != nil {
		return mapReceiptError(c, err)
	}
	return ok(c, fiber.Map{"receipt": view})
}

func (h *ReceiptHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		PatientID *int64 `query:"patient_id"`
		PaymentID *int64 `query:"payment_id"`
		Status    string `query:"status"`
		Page      int    `query:"page"`
		PerPage   int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	views, total, err := h.svc.List(c.Context(), actor, receipt.ListRequest{
		PatientID: q.PatientID,
		PaymentID: q.PaymentID,
		Status:    q.Status,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
	if err != nil {
		return mapReceiptError(c, err)
	}
	return ok(c, fiber.Map{"receipts": views, "total": total})
}

func (h *ReceiptHandler) Send(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	view, err := h.svc.Send(c.Context(), actor, c.Params("number"))
	if err != nil {
		return mapReceiptError(c, err)
	}
	return ok(c, fiber.Map{"receipt": view})
}

// SendByPayment delivers the receipt belonging to a payment id, issuing it
// first when missing.
func (h *ReceiptHandler) SendByPayment(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	paymentID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid payment id")
	}
	view, err := h.svc.SendByPaymentID(c.Context(), actor, paymentID)
	if err != nil {
		return mapReceiptError(c, err)
	}
	return ok(c, fiber.Map{"receipt": view})
}

func (h *ReceiptHandler) PDF(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	data, filename, err := h.svc.PDF(c.Context(), actor, c.Params("number"))
	if err != nil {
		return mapReceiptError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(data)
}

func (h *ReceiptHandler) Backfill(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	result, err := h.svc.Backfill(c.Context(), actor)
	if err != nil {
		return mapReceiptError(c, err)
	}
	return ok(c, fiber.Map{"created": result.Created, "skipped": result.Skipped})
}
