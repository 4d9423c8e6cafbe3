package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
)

// AuditHandler exposes the audit log, admin only.
type AuditHandler struct {
	svc audit.Service
}

func NewAuditHandler(svc audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) List(c fiber.Ctx) error {
	var q struct {
		Event   string `query:"event"`
		ActorID string `query:"actor_id"`
		From    string `query:"from"`
		To      string `query:"to"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	req := audit.ListRequest{
		Event:   q.Event,
		Page:    q.Page,
		PerPage: q.PerPage,
	}
	if id, err := primitive.ObjectIDFromHex(q.ActorID); err == nil {
		req.ActorID = &id
	}
	if t, err := time.Parse("2006-01-02", q.From); err == nil {
		req.From = &t
	}
	if t, err := time.Parse("2006-01-02", q.To); err == nil {
		end := t.AddDate(0, 0, 1)
		req.To = &end
	}
	rows, total, err := h.svc.List(c.Context(), req)
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, fiber.Map{"events": rows, "total": total})
}
