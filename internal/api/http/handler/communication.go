package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/mailer"
)

// CommunicationHandler exposes the outbound communication log, read only.
// Rows are written by the email gateway, never through this surface.
type CommunicationHandler struct {
	svc mailer.Service
}

func NewCommunicationHandler(svc mailer.Service) *CommunicationHandler {
	return &CommunicationHandler{svc: svc}
}

func (h *CommunicationHandler) List(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var q struct {
		PatientID *int64 `query:"patient_id"`
		Type      string `query:"type"`
		Status    string `query:"status"`
		From      string `query:"from"`
		To        string `query:"to"`
		Page      int    `query:"page"`
		PerPage   int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	req := mailer.ListRequest{
		PatientID: q.PatientID,
		Type:      q.Type,
		Status:    q.Status,
		Page:      q.Page,
		PerPage:   q.PerPage,
	}
	if t, err := time.Parse("2006-01-02", q.From); err == nil {
		req.From = t
	}
	if t, err := time.Parse("2006-01-02", q.To); err == nil {
		req.To = t.AddDate(0, 0, 1)
	}
	views, total, err := h.svc.List(c.Context(), actor, req)
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, fiber.Map{"communications": views, "total": total})
}
