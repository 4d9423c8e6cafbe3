package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/service/report"
)

// ReportHandler exposes the reporting dashboard.
type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Dashboard returns appointment, revenue and outstanding-balance aggregates
// for the requested window, defaulting to month-to-date.
func (h *ReportHandler) Dashboard(c fiber.Ctx) error {
	var from, to time.Time
	if t, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = t
	}
	if t, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		to = t.AddDate(0, 0, 1)
	}
	dashboard, err := h.svc.Dashboard(c.Context(), from, to)
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, fiber.Map{"dashboard": dashboard})
}
