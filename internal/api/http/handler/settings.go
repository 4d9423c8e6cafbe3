package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/settings"
)

// SettingsHandler exposes clinic configuration: branding, email templates,
// therapist availability and document templates.
type SettingsHandler struct {
	svc settings.Service
}

func NewSettingsHandler(svc settings.Service) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func mapSettingsError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, settings.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, settings.ErrValidation):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

func (h *SettingsHandler) Get(c fiber.Ctx) error {
	cfg, err := h.svc.Get(c.Context())
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, fiber.Map{"settings": cfg})
}

type brandingBody struct {
	ClinicName string `json:"clinic_name"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Website    string `json:"website"`
	LogoURL    string `json:"logo_url"`
}

type emailTemplateBody struct {
	TemplateName string `json:"template_name"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

type notificationPrefsBody struct {
	BookingConfirmation bool `json:"booking_confirmation"`
	InvoiceDelivery     bool `json:"invoice_delivery"`
	ReceiptDelivery     bool `json:"receipt_delivery"`
}

type updateSettingsBody struct {
	Branding                *brandingBody          `json:"branding"`
	InvoicePrefix           *string                `json:"invoice_prefix"`
	EmailProvider           *string                `json:"email_provider"`
	EmailTemplates          []emailTemplateBody    `json:"email_templates"`
	PaymentInstructions     *string                `json:"payment_instructions"`
	NotificationPreferences *notificationPrefsBody `json:"notification_preferences"`
}

func (h *SettingsHandler) Update(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body updateSettingsBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	req := settings.UpdateSettingsRequest{
		InvoicePrefix:       body.InvoicePrefix,
		EmailProvider:       body.EmailProvider,
		PaymentInstructions: body.PaymentInstructions,
	}
	if body.Branding != nil {
		req.Branding = &model.Branding{
			ClinicName: body.Branding.ClinicName,
			Address:    body.Branding.Address,
			Phone:      body.Branding.Phone,
			Email:      body.Branding.Email,
			Website:    body.Branding.Website,
			LogoURL:    body.Branding.LogoURL,
		}
	}
	for _, t := range body.EmailTemplates {
		req.EmailTemplates = append(req.EmailTemplates, model.EmailTemplate{
			TemplateName: t.TemplateName,
			Subject:      t.Subject,
			Body:         t.Body,
		})
	}
	if body.NotificationPreferences != nil {
		req.NotificationPreferences = &model.NotificationPreferences{
			BookingConfirmation: body.NotificationPreferences.BookingConfirmation,
			InvoiceDelivery:     body.NotificationPreferences.InvoiceDelivery,
			ReceiptDelivery:     body.NotificationPreferences.ReceiptDelivery,
		}
	}
	cfg, err := h.svc.Update(c.Context(), actor, req)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, fiber.Map{"settings": cfg})
}

func (h *SettingsHandler) PreviewTemplate(c fiber.Ctx) error {
	preview, err := h.svc.PreviewTemplate(c.Context(), c.Params("name"))
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, fiber.Map{"preview": preview})
}

type testEmailBody struct {
	To string `json:"to"`
}

func (h *SettingsHandler) SendTestEmail(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body testEmailBody
	if err := c.Bind().Body(&body); err != nil || strings.TrimSpace(body.To) == "" {
		return badRequest(c, "recipient address is required")
	}
	result, err := h.svc.SendTestEmail(c.Context(), actor, body.To)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, fiber.Map{"status": result.Status, "provider": result.Provider})
}

// --- Availability -----------------------------------------------------------

func (h *SettingsHandler) ListAvailability(c fiber.Ctx) error {
	var q struct {
		EmployeeID *int64 `query:"employeeID"`
	}
	_ = c.Bind().Query(&q)
	rows, err := h.svc.ListAvailability(c.Context(), q.EmployeeID)
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, fiber.Map{"availability": rows, "total": len(rows)})
}

type availabilitySlotBody struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
}

type availabilityBody struct {
	TherapistEmployeeID int64                  `json:"therapist_employee_id"`
	Slots               []availabilitySlotBody `json:"slots"`
	EffectiveFrom       time.Time              `json:"effective_from"`
	EffectiveTo         *time.Time             `json:"effective_to"`
	IsDefault           bool                   `json:"is_default"`
	Notes               string                 `json:"notes"`
}

func (b availabilityBody) toRequest() settings.AvailabilityRequest {
	req := settings.AvailabilityRequest{
		TherapistEmployeeID: b.TherapistEmployeeID,
		EffectiveFrom:       b.EffectiveFrom,
		EffectiveTo:         b.EffectiveTo,
		IsDefault:           b.IsDefault,
		Notes:               b.Notes,
	}
	for _, s := range b.Slots {
		req.Slots = append(req.Slots, model.AvailabilitySlot{
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Location:  s.Location,
		})
	}
	return req
}

func (h *SettingsHandler) CreateAvailability(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body availabilityBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	row, err := h.svc.CreateAvailability(c.Context(), actor, body.toRequest())
	if err != nil {
		return mapSettingsError(c, err)
	}
	return created(c, fiber.Map{"availability": row})
}

func (h *SettingsHandler) UpdateAvailability(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	var body availabilityBody
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	row, err := h.svc.UpdateAvailability(c.Context(), actor, c.Params("id"), body.toRequest())
	if err != nil {
		return mapSettingsError(c, err)
	}
	return ok(c, fiber.Map{"availability": row})
}

func (h *SettingsHandler) DeleteAvailability(c fiber.Ctx) error {
	actor, okActor := middleware.ActorFromFiber(c)
	if !okActor {
		return unauthorized(c, "authentication required")
	}
	if err := h.svc.DeleteAvailability(c.Context(), actor, c.Params("id")); err != nil {
		return mapSettingsError(c, err)
	}
	return message(c, "availability removed")
}

// --- Document templates -----------------------------------------------------

// The GP letter and treatment note template endpoints share handlers; the
// router binds each path to its backing collection.

type templateBody struct {
	Name string   `json:"name"`
	Body string   `json:"body"`
	Tags []string `json:"tags"`
}

func (h *SettingsHandler) ListTemplates(collection string) fiber.Handler {
	return func(c fiber.Ctx) error {
		rows, err := h.svc.ListTemplates(c.Context(), collection, c.Query("include_archived") == "true")
		if err != nil {
			return mapSettingsError(c, err)
		}
		return ok(c, fiber.Map{"templates": rows, "total": len(rows)})
	}
}

func (h *SettingsHandler) CreateTemplate(collection string) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, okActor := middleware.ActorFromFiber(c)
		if !okActor {
			return unauthorized(c, "authentication required")
		}
		var body templateBody
		if err := c.Bind().Body(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		row, err := h.svc.CreateTemplate(c.Context(), actor, collection, settings.TemplateRequest{
			Name: body.Name,
			Body: body.Body,
			Tags: body.Tags,
		})
		if err != nil {
			return mapSettingsError(c, err)
		}
		return created(c, fiber.Map{"template": row})
	}
}

func (h *SettingsHandler) UpdateTemplate(collection string) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, okActor := middleware.ActorFromFiber(c)
		if !okActor {
			return unauthorized(c, "authentication required")
		}
		var body templateBody
		if err := c.Bind().Body(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		row, err := h.svc.UpdateTemplate(c.Context(), actor, collection, c.Params("id"), settings.TemplateRequest{
			Name: body.Name,
			Body: body.Body,
			Tags: body.Tags,
		})
		if err != nil {
			return mapSettingsError(c, err)
		}
		return ok(c, fiber.Map{"template": row})
	}
}

func (h *SettingsHandler) ArchiveTemplate(collection string) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, okActor := middleware.ActorFromFiber(c)
		if !okActor {
			return unauthorized(c, "authentication required")
		}
		if err := h.svc.ArchiveTemplate(c.Context(), actor, collection, c.Params("id")); err != nil {
			return mapSettingsError(c, err)
		}
		return message(c, "template archived")
	}
}
