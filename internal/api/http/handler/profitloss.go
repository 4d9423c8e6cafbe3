package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/profitloss"
)

// ProfitLossHandler exposes the income and expense ledger.
type ProfitLossHandler struct {
	svc profitloss.Service
}

func NewProfitLossHandler(svc profitloss.Service) *ProfitLossHandler {
	return &ProfitLossHandler{svc: svc}
}

func mapProfitLossError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, profitloss.ErrNotFound):
		return notFound(c, "ledger entry not found")
	case errors.Is(err, profitloss.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type createLedgerEntryBody struct {
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

func (h *ProfitLossHandler) Create(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body createLedgerEntryBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	entry, err := h.svc.Create(c.Context(), actor, profitloss.CreateRequest{
		Date:        body.Date,
		Type:        body.Type,
		Category:    body.Category,
		Description: body.Description,
		Amount:      body.Amount,
	})
	if err != nil {
		return mapProfitLossError(c, err)
	}
	return created(c, fiber.Map{"entry": entry})
}

func (h *ProfitLossHandler) List(c fiber.Ctx) error {
	var q struct {
		Type    string `query:"type"`
		From    string `query:"from"`
		To      string `query:"to"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	req := profitloss.ListRequest{
		Type:    q.Type,
		Page:    q.Page,
		PerPage: q.PerPage,
	}
	if t, err := time.Parse("2006-01-02", q.From); err == nil {
		req.From = &t
	}
	if t, err := time.Parse("2006-01-02", q.To); err == nil {
		end := t.AddDate(0, 0, 1)
		req.To = &end
	}
	entries, total, err := h.svc.List(c.Context(), req)
	if err != nil {
		return mapProfitLossError(c, err)
	}
	return ok(c, fiber.Map{"entries": entries, "total": total})
}

// Delete removes a manual entry. Automatic invoice income rows cannot be
// deleted here.
func (h *ProfitLossHandler) Delete(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid entry id")
	}
	if err := h.svc.Delete(c.Context(), actor, id); err != nil {
		return mapProfitLossError(c, err)
	}
	return message(c, "entry deleted")
}

func (h *ProfitLossHandler) Summary(c fiber.Ctx) error {
	var from, to time.Time
	if t, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = t
	}
	if t, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		to = t.AddDate(0, 0, 1)
	}
	summary, err := h.svc.Summarize(c.Context(), from, to)
	if err != nil {
		return mapProfitLossError(c, err)
	}
	return ok(c, fiber.Map{"summary": summary})
}
