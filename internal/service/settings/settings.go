// Package settings owns the clinic-settings singleton, therapist availability
// and the two document-template catalogues.
package settings

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/mailer"
	"github.com/bridgesphysio/bridges_backend/pkg/email"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UpdateSettingsRequest struct {
	Branding                *model.Branding
	InvoicePrefix           *string
	EmailProvider           *string
	EmailTemplates          []model.EmailTemplate
	PaymentInstructions     *string
	NotificationPreferences *model.NotificationPreferences
}

type AvailabilityRequest struct {
	TherapistEmployeeID int64
	Slots               []model.AvailabilitySlot
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
	IsDefault           bool
	Notes               string
}

type TemplateRequest struct {
	Name string
	Body string
	Tags []string
}

// PreviewResult is a rendered email template with sample data substituted.
type PreviewResult struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	Get(ctx context.Context) (*model.ClinicSettings, error)
	Update(ctx context.Context, actor access.Actor, req UpdateSettingsRequest) (*model.ClinicSettings, error)

	// PreviewTemplate renders a built-in or overridden email template with
	// placeholder sample values.
	PreviewTemplate(ctx context.Context, name string) (*PreviewResult, error)

	// SendTestEmail dispatches the test template to the given address so
	// an admin can verify provider configuration.
	SendTestEmail(ctx context.Context, actor access.Actor, to string) (email.Result, error)

	ListAvailability(ctx context.Context, employeeID *int64) ([]model.Availability, error)
	CreateAvailability(ctx context.Context, actor access.Actor, req AvailabilityRequest) (*model.Availability, error)
	UpdateAvailability(ctx context.Context, actor access.Actor, id string, req AvailabilityRequest) (*model.Availability, error)
	DeleteAvailability(ctx context.Context, actor access.Actor, id string) error

	ListTemplates(ctx context.Context, collection string, includeArchived bool) ([]model.DocumentTemplate, error)
	CreateTemplate(ctx context.Context, actor access.Actor, collection string, req TemplateRequest) (*model.DocumentTemplate, error)
	UpdateTemplate(ctx context.Context, actor access.Actor, collection, id string, req TemplateRequest) (*model.DocumentTemplate, error)
	ArchiveTemplate(ctx context.Context, actor access.Actor, collection, id string) error
}

// Template collection selectors, mapped to collections by the service.
const (
	GPLetterTemplates      = "gp_letter"
	TreatmentNoteTemplates = "treatment_note"
)

type settingsService struct {
	db      *mongo.Database
	auditor audit.Service
	mail    mailer.Service
}

func New(db *mongo.Database, auditor audit.Service, mail mailer.Service) Service {
	return &settingsService{db: db, auditor: auditor, mail: mail}
}

// ---------------------------------------------------------------------------
// Clinic settings singleton
// ---------------------------------------------------------------------------

func (s *settingsService) Get(ctx context.Context) (*model.ClinicSettings, error) {
	var out model.ClinicSettings
	err := s.db.Collection(model.ColClinicSettings).FindOne(ctx, bson.M{}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return &model.ClinicSettings{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settingsService) Update(ctx context.Context, actor access.Actor, req UpdateSettingsRequest) (*model.ClinicSettings, error) {
	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": actor.UserID}

	if req.Branding != nil {
		set["branding"] = *req.Branding
	}
	if req.InvoicePrefix != nil {
		prefix := strings.ToUpper(strings.TrimSpace(*req.InvoicePrefix))
		if prefix == "" {
			prefix = model.DefaultInvoicePrefix
		}
		set["invoice_prefix"] = prefix
	}
	if req.EmailProvider != nil {
		set["email_provider"] = *req.EmailProvider
	}
	if req.EmailTemplates != nil {
		for _, t := range req.EmailTemplates {
			if t.TemplateName == "" {
				return nil, ErrValidation
			}
		}
		set["email_templates"] = req.EmailTemplates
	}
	if req.PaymentInstructions != nil {
		set["payment_instructions"] = *req.PaymentInstructions
	}
	if req.NotificationPreferences != nil {
		set["notification_preferences"] = *req.NotificationPreferences
	}

	opts := options.Update().SetUpsert(true)
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	if _, err := s.db.Collection(model.ColClinicSettings).UpdateOne(ctx, bson.M{}, update, opts); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "settings.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
	})

	return s.Get(ctx)
}

// ---------------------------------------------------------------------------
// Email templates
// ---------------------------------------------------------------------------

var sampleData = map[string]string{
	"patientName":   "Alex Example",
	"date":          "Monday 02 March 2026",
	"time":          "10:30",
	"location":      "Main clinic",
	"treatment":     "Physiotherapy session",
	"therapist":     "J. Smith",
	"invoiceNumber": "INV-2026-0042",
	"totalDue":      "£65.00",
	"dueDate":       "16 Mar 2026",
	"receiptNumber": "RCT-2026-0042",
	"amountPaid":    "£65.00",
	"paymentDate":   "02 Mar 2026",
	"method":        "card",
	"resetURL":      "https://example.invalid/reset-password?token=sample",
	"clinicName":    "Bridges Physiotherapy",
}

func (s *settingsService) PreviewTemplate(ctx context.Context, name string) (*PreviewResult, error) {
	if override := s.mail.TemplateOverride(ctx, email.TemplateName(name)); override != nil {
		subject, body := email.ApplyOverride(*override, sampleData)
		return &PreviewResult{Subject: subject, Body: body}, nil
	}

	branding := s.mail.Branding(ctx)
	var msg email.Message
	switch email.TemplateName(name) {
	case email.TemplateBookingConfirmation:
		msg = email.BuildBookingConfirmationEmail(email.BookingEmailData{
			PatientName: sampleData["patientName"], Email: "sample@example.invalid",
			Date: sampleData["date"], Time: sampleData["time"],
			Location: sampleData["location"], Treatment: sampleData["treatment"],
			Therapist: sampleData["therapist"], Branding: branding,
		}, nil)
	case email.TemplateInvoiceDelivery, email.TemplateCancellationFee:
		msg = email.BuildInvoiceEmail(email.InvoiceEmailData{
			PatientName: sampleData["patientName"], Email: "sample@example.invalid",
			InvoiceNumber: sampleData["invoiceNumber"], TotalDue: sampleData["totalDue"],
			DueDate:         sampleData["dueDate"],
			CancellationFee: email.TemplateName(name) == email.TemplateCancellationFee,
			Branding:        branding,
		}, nil)
	case email.TemplateReceiptDelivery:
		msg = email.BuildReceiptEmail(email.ReceiptEmailData{
			PatientName: sampleData["patientName"], Email: "sample@example.invalid",
			ReceiptNumber: sampleData["receiptNumber"], AmountPaid: sampleData["amountPaid"],
			PaymentDate: sampleData["paymentDate"], Method: sampleData["method"],
			Branding: branding,
		}, nil)
	case email.TemplatePasswordReset:
		msg = email.BuildPasswordResetEmail(email.ResetEmailData{
			Name: sampleData["patientName"], Email: "sample@example.invalid",
			ResetURL: sampleData["resetURL"], Branding: branding,
		})
	case email.TemplateTestEmail:
		msg = email.BuildTestEmail("sample@example.invalid", branding)
	default:
		return nil, ErrNotFound
	}
	return &PreviewResult{Subject: msg.Subject, Body: msg.HTMLBody}, nil
}

func (s *settingsService) SendTestEmail(ctx context.Context, actor access.Actor, to string) (email.Result, error) {
	branding := s.mail.Branding(ctx)
	msg := email.BuildTestEmail(to, branding)

	res, err := s.mail.Send(ctx, mailer.SendRequest{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
		Actor:   &actor.UserID,
	})

	s.auditor.Record(ctx, "settings.test_email.send", err == nil && res.Status == email.StatusSent, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"to": to, "status": string(res.Status)},
	})
	return res, err
}

// ---------------------------------------------------------------------------
// Availability
// ---------------------------------------------------------------------------

func (s *settingsService) availabilityCol() *mongo.Collection {
	return s.db.Collection(model.ColAvailabilities)
}

func (s *settingsService) ListAvailability(ctx context.Context, employeeID *int64) ([]model.Availability, error) {
	filter := bson.M{}
	if employeeID != nil {
		filter["therapist_employee_id"] = *employeeID
	}

	opts := options.Find().SetSort(bson.D{{Key: "therapist_employee_id", Value: 1}, {Key: "effective_from", Value: -1}})
	cur, err := s.availabilityCol().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []model.Availability
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func validSlots(slots []model.AvailabilitySlot) bool {
	for _, sl := range slots {
		if sl.DayOfWeek < 0 || sl.DayOfWeek > 6 || sl.StartTime == "" || sl.EndTime == "" {
			return false
		}
	}
	return true
}

func (s *settingsService) CreateAvailability(ctx context.Context, actor access.Actor, req AvailabilityRequest) (*model.Availability, error) {
	if req.TherapistEmployeeID == 0 || req.EffectiveFrom.IsZero() || !validSlots(req.Slots) {
		return nil, ErrValidation
	}

	var therapist model.User
	err := s.db.Collection(model.ColUsers).FindOne(ctx, bson.M{"employeeID": req.TherapistEmployeeID, "active": true}).Decode(&therapist)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := model.Availability{
		Therapist:           therapist.ID,
		TherapistEmployeeID: req.TherapistEmployeeID,
		Slots:               req.Slots,
		EffectiveFrom:       req.EffectiveFrom,
		EffectiveTo:         req.EffectiveTo,
		IsDefault:           req.IsDefault,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	res, err := s.availabilityCol().InsertOne(ctx, row)
	if err != nil {
		return nil, err
	}
	row.ID = res.InsertedID.(primitive.ObjectID)

	s.auditor.Record(ctx, "availability.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"therapist_employee_id": req.TherapistEmployeeID},
	})
	return &row, nil
}

func (s *settingsService) UpdateAvailability(ctx context.Context, actor access.Actor, id string, req AvailabilityRequest) (*model.Availability, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrValidation
	}
	if !validSlots(req.Slots) {
		return nil, ErrValidation
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "is_default": req.IsDefault, "notes": req.Notes}
	if req.Slots != nil {
		set["slots"] = req.Slots
	}
	if !req.EffectiveFrom.IsZero() {
		set["effective_from"] = req.EffectiveFrom
	}
	if req.EffectiveTo != nil {
		set["effective_to"] = *req.EffectiveTo
	}

	res, err := s.availabilityCol().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	s.auditor.Record(ctx, "availability.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"id": id},
	})

	var row model.Availability
	if err := s.availabilityCol().FindOne(ctx, bson.M{"_id": oid}).Decode(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *settingsService) DeleteAvailability(ctx context.Context, actor access.Actor, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrValidation
	}

	res, err := s.availabilityCol().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "availability.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"id": id},
	})
	return nil
}

// ---------------------------------------------------------------------------
// Document templates
// ---------------------------------------------------------------------------

func (s *settingsService) templateCol(kind string) (*mongo.Collection, error) {
	switch kind {
	case GPLetterTemplates:
		return s.db.Collection(model.ColGPLetterTemplates), nil
	case TreatmentNoteTemplates:
		return s.db.Collection(model.ColTreatmentNoteTemplates), nil
	}
	return nil, ErrValidation
}

func (s *settingsService) ListTemplates(ctx context.Context, collection string, includeArchived bool) ([]model.DocumentTemplate, error) {
	col, err := s.templateCol(collection)
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if !includeArchived {
		filter["archived"] = false
	}

	cur, err := col.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []model.DocumentTemplate
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *settingsService) CreateTemplate(ctx context.Context, actor access.Actor, collection string, req TemplateRequest) (*model.DocumentTemplate, error) {
	col, err := s.templateCol(collection)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	row := model.DocumentTemplate{
		Name:      req.Name,
		Body:      req.Body,
		Tags:      req.Tags,
		CreatedBy: actor.UserID,
		UpdatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := col.InsertOne(ctx, row)
	if err != nil {
		return nil, err
	}
	row.ID = res.InsertedID.(primitive.ObjectID)

	s.auditor.Record(ctx, "template.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"collection": collection, "name": req.Name},
	})
	return &row, nil
}

func (s *settingsService) UpdateTemplate(ctx context.Context, actor access.Actor, collection, id string, req TemplateRequest) (*model.DocumentTemplate, error) {
	col, err := s.templateCol(collection)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrValidation
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": actor.UserID}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Body != "" {
		set["body"] = req.Body
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	var row model.DocumentTemplate
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *settingsService) ArchiveTemplate(ctx context.Context, actor access.Actor, collection, id string) error {
	col, err := s.templateCol(collection)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrValidation
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"archived": true, "updatedAt": time.Now().UTC(), "updatedBy": actor.UserID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "template.archive", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"collection": collection, "id": id},
	})
	return nil
}
