// Package appointment manages bookings: creation with recurrence expansion,
// outcome transitions that can trigger automatic invoicing, and the two kinds
// of notes a session carries.
package appointment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/internal/service/invoice"
	"github.com/bridgesphysio/bridges_backend/internal/service/mailer"
	"github.com/bridgesphysio/bridges_backend/pkg/email"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
)

// Outcomes accepted by the transition endpoint. cancelled_on_the_day is a
// legacy alias of cancelled_same_day.
const (
	OutcomeCompleted         = "completed"
	OutcomeCompletedManual   = "completed_manual"
	OutcomeCancelledSameDay  = "cancelled_same_day"
	OutcomeCancelledOnTheDay = "cancelled_on_the_day"
	OutcomeCancelledResched  = "cancelled_reschedule"
	OutcomeOther             = "other"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	PatientID       int64
	Date            time.Time
	DurationMinutes int
	Location        string
	Room            string

	TherapistID string // hex ObjectID
	EmployeeID  *int64

	TreatmentID          *int64
	TreatmentDescription string
	TreatmentCount       int
	Price                *float64

	Recurrence            *RecurrenceInput
	SendConfirmationEmail *bool
}

type UpdateRequest struct {
	Date            *time.Time
	DurationMinutes *int
	Location        *string
	Room            *string
	EmployeeID      *int64
	TreatmentID     *int64
	Description     *string
	TreatmentCount  *int
	Price           *float64
}

type OutcomeRequest struct {
	AppointmentID int64
	Outcome       string
	Note          string
}

type ListRequest struct {
	PatientID  *int64
	EmployeeID *int64
	SeriesID   string
	Status     string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

// View is the decrypted appointment projection returned to handlers.
type View struct {
	ID            string `json:"id"`
	AppointmentID int64  `json:"appointment_id"`
	SeriesID      string `json:"series_id,omitempty"`
	PatientID     int64  `json:"patient_id"`
	EmployeeID    int64  `json:"employeeID"`

	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	Location        string    `json:"location"`
	Room            string    `json:"room,omitempty"`

	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Contact   string `json:"contact"`

	Completed          bool       `json:"completed"`
	Status             string     `json:"status"`
	CompletionStatus   string     `json:"completion_status,omitempty"`
	CompletionNote     string     `json:"completion_note,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	TreatmentID          int64   `json:"treatment_id,omitempty"`
	TreatmentDescription string  `json:"treatment_description"`
	TreatmentCount       int     `json:"treatment_count"`
	Price                float64 `json:"price"`
	BillingMode          string  `json:"billing_mode"`

	Recurrence     *model.Recurrence  `json:"recurrence,omitempty"`
	TreatmentNotes string             `json:"treatment_notes,omitempty"`
	ClinicalNotes  []ClinicalNoteView `json:"clinical_notes,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type ClinicalNoteView struct {
	Author    string    `json:"author,omitempty"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// OutcomeResult reports the transition and any invoice it produced.
type OutcomeResult struct {
	Appointment   *View   `json:"appointment"`
	InvoiceNumber string  `json:"invoice_number,omitempty"`
	InvoiceTotal  float64 `json:"invoice_total,omitempty"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	// Create books one appointment, or a whole series when recurrence is
	// set. All occurrences are returned in date order.
	Create(ctx context.Context, actor access.Actor, req CreateRequest) ([]View, error)

	GetByID(ctx context.Context, actor access.Actor, appointmentID int64) (*View, error)
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
	Update(ctx context.Context, actor access.Actor, appointmentID int64, req UpdateRequest) (*View, error)
	Delete(ctx context.Context, actor access.Actor, appointmentID int64) error

	// Outcome applies a completion or cancellation and runs the automatic
	// invoicing that may follow.
	Outcome(ctx context.Context, actor access.Actor, req OutcomeRequest) (*OutcomeResult, error)

	// SetTreatmentNotes replaces the whole treatment-notes field.
	SetTreatmentNotes(ctx context.Context, actor access.Actor, appointmentID int64, notes string) (*View, error)

	// AddClinicalNote appends one clinical note; existing notes are never
	// modified.
	AddClinicalNote(ctx context.Context, actor access.Actor, appointmentID int64, note string) (*View, error)
}

type appointmentService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
	scope    access.Service
	invoices invoice.Service
	mail     mailer.Service
	codec    *fieldcrypt.Codec
}

func New(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	invoices invoice.Service,
	mail mailer.Service,
	codec *fieldcrypt.Codec,
) Service {
	return &appointmentService{
		db:       db,
		counters: counters,
		auditor:  auditor,
		scope:    scope,
		invoices: invoices,
		mail:     mail,
		codec:    codec,
	}
}

func (s *appointmentService) col() *mongo.Collection {
	return s.db.Collection(model.ColAppointments)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func (s *appointmentService) Create(ctx context.Context, actor access.Actor, req CreateRequest) ([]View, error) {
	if req.PatientID == 0 || req.Date.IsZero() || strings.TrimSpace(req.Location) == "" {
		return nil, ErrValidation
	}
	if req.Recurrence != nil && !ValidFrequency(req.Recurrence.Frequency) {
		return nil, ErrValidation
	}

	patient, err := s.loadPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	therapist, err := s.resolveTherapist(ctx, req.TherapistID, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	desc, price, treatmentID, duration, err := s.resolveTreatment(ctx, req)
	if err != nil {
		return nil, err
	}
	if duration == 0 {
		duration = req.DurationMinutes
	}

	count := req.TreatmentCount
	if count < 1 {
		count = 1
	}

	dates := []time.Time{req.Date}
	seriesID := ""
	var recurrence *model.Recurrence
	if req.Recurrence != nil {
		dates = ExpandRecurrence(req.Date, *req.Recurrence)
		seriesID = uuid.NewString()
		recurrence = &model.Recurrence{
			Frequency:  req.Recurrence.Frequency,
			Interval:   req.Recurrence.Interval,
			Count:      len(dates),
			DaysOfWeek: req.Recurrence.DaysOfWeek,
		}
	}

	now := time.Now().UTC()
	docs := make([]any, 0, len(dates))
	rows := make([]model.Appointment, 0, len(dates))
	for i, date := range dates {
		id, err := s.counters.Next(ctx, model.CounterAppointmentID, 1)
		if err != nil {
			return nil, err
		}
		a := model.Appointment{
			AppointmentID: id,
			SeriesID:      seriesID,
			PatientID:     patient.PatientID,
			Patient:       &patient.ID,
			EmployeeID:    therapist.EmployeeID,
			Therapist:     &therapist.ID,

			Date:            date,
			DurationMinutes: duration,
			Location:        req.Location,
			Room:            req.Room,

			// Ciphertext copied straight from the patient row.
			FirstName: patient.FirstName,
			Surname:   patient.Surname,
			Contact:   patientContact(patient),

			Status:           model.AppointmentScheduled,
			CompletionStatus: model.CompletionScheduled,

			TreatmentID:          treatmentID,
			TreatmentDescription: desc,
			TreatmentCount:       count,
			Price:                price,
			BillingMode:          patient.BillingMode,

			CreatedBy: &actor.UserID,
			UpdatedBy: &actor.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if i == 0 {
			a.Recurrence = recurrence
		}
		docs = append(docs, a)
		rows = append(rows, a)
	}

	if _, err := s.col().InsertMany(ctx, docs); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "appointment.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{
			"patient_id":  patient.PatientID,
			"occurrences": len(rows),
			"series_id":   seriesID,
		},
	})

	if req.SendConfirmationEmail == nil || *req.SendConfirmationEmail {
		s.sendConfirmation(ctx, actor, patient, therapist, &rows[0])
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, s.toView(&rows[i]))
	}
	return out, nil
}

func (s *appointmentService) resolveTherapist(ctx context.Context, hexID string, employeeID *int64) (*model.User, error) {
	filter := bson.M{"active": true}
	switch {
	case employeeID != nil:
		filter["employeeID"] = *employeeID
	case hexID != "":
		oid, err := primitive.ObjectIDFromHex(hexID)
		if err != nil {
			return nil, ErrValidation
		}
		filter["_id"] = oid
	default:
		return nil, ErrValidation
	}

	var u model.User
	err := s.db.Collection(model.ColUsers).FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTherapistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// resolveTreatment fills description, price and duration from the catalogue
// when a treatment_id is given and the caller left them blank.
func (s *appointmentService) resolveTreatment(ctx context.Context, req CreateRequest) (desc string, price float64, treatmentID int64, duration int, err error) {
	desc = strings.TrimSpace(req.TreatmentDescription)
	if req.Price != nil {
		price = *req.Price
	}

	if req.TreatmentID != nil {
		treatmentID = *req.TreatmentID
		var svc model.Service
		ferr := s.db.Collection(model.ColServices).FindOne(ctx, bson.M{"treatment_id": treatmentID}).Decode(&svc)
		if ferr == nil {
			if desc == "" {
				desc = svc.TreatmentDescription
			}
			if req.Price == nil {
				price = svc.Price
			}
			duration = svc.DurationMinutes
		}
	}

	if desc == "" || price < 0 {
		return "", 0, 0, 0, ErrValidation
	}
	return desc, price, treatmentID, duration, nil
}

func patientContact(p *model.Patient) string {
	if p.Phone != "" {
		return p.Phone
	}
	return p.Email
}

func (s *appointmentService) sendConfirmation(ctx context.Context, actor access.Actor, patient *model.Patient, therapist *model.User, a *model.Appointment) {
	to := s.codec.DecryptString(patient.Email)
	if to == "" {
		return
	}

	branding := s.mail.Branding(ctx)
	override := s.mail.TemplateOverride(ctx, email.TemplateBookingConfirmation)

	msg := email.BuildBookingConfirmationEmail(email.BookingEmailData{
		PatientName: s.codec.DecryptString(patient.FirstName),
		Email:       to,
		Date:        a.Date.Format("Monday 02 January 2006"),
		Time:        a.Date.Format("15:04"),
		Location:    a.Location,
		Treatment:   a.TreatmentDescription,
		Therapist:   therapist.Username,
		Branding:    branding,
	}, override)

	_, err := s.mail.Send(ctx, mailer.SendRequest{
		To:        msg.To,
		Subject:   msg.Subject,
		HTML:      msg.HTMLBody,
		Text:      msg.TextBody,
		PatientID: &patient.PatientID,
		Actor:     &actor.UserID,
		Metadata:  map[string]any{"appointment_id": a.AppointmentID},
	})
	if err != nil {
		slog.Warn("booking confirmation not sent", "appointment_id", a.AppointmentID, "error", err)
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *appointmentService) GetByID(ctx context.Context, actor access.Actor, appointmentID int64) (*View, error) {
	a, err := s.scoped(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	v := s.toView(a)
	return &v, nil
}

func (s *appointmentService) scoped(ctx context.Context, actor access.Actor, appointmentID int64) (*model.Appointment, error) {
	filter, err := s.scope.DerivedFilter(ctx, actor, bson.M{"appointment_id": appointmentID})
	if err != nil {
		return nil, err
	}

	var a model.Appointment
	err = s.col().FindOne(ctx, filter).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *appointmentService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 500 {
		req.PerPage = 100
	}

	base := bson.M{}
	if req.PatientID != nil {
		base["patient_id"] = *req.PatientID
	}
	if req.EmployeeID != nil {
		base["employeeID"] = *req.EmployeeID
	}
	if req.SeriesID != "" {
		base["series_id"] = req.SeriesID
	}
	if req.Status != "" {
		base["status"] = req.Status
	}
	if req.From != nil || req.To != nil {
		window := bson.M{}
		if req.From != nil {
			window["$gte"] = *req.From
		}
		if req.To != nil {
			window["$lte"] = *req.To
		}
		base["date"] = window
	}

	filter, err := s.scope.DerivedFilter(ctx, actor, base)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"date": 1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Appointment
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, s.toView(&rows[i]))
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func (s *appointmentService) Update(ctx context.Context, actor access.Actor, appointmentID int64, req UpdateRequest) (*View, error) {
	if _, err := s.scoped(ctx, actor, appointmentID); err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": actor.UserID}
	if req.Date != nil {
		set["date"] = *req.Date
	}
	if req.DurationMinutes != nil {
		set["duration_minutes"] = *req.DurationMinutes
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return nil, ErrValidation
		}
		set["location"] = *req.Location
	}
	if req.Room != nil {
		set["room"] = *req.Room
	}
	if req.EmployeeID != nil {
		t, err := s.resolveTherapist(ctx, "", req.EmployeeID)
		if err != nil {
			return nil, err
		}
		set["employeeID"] = t.EmployeeID
		set["therapist"] = t.ID
	}
	if req.TreatmentID != nil {
		set["treatment_id"] = *req.TreatmentID
	}
	if req.Description != nil {
		set["treatment_description"] = *req.Description
	}
	if req.TreatmentCount != nil && *req.TreatmentCount >= 1 {
		set["treatment_count"] = *req.TreatmentCount
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, ErrValidation
		}
		set["price"] = *req.Price
	}

	if _, err := s.col().UpdateOne(ctx, bson.M{"appointment_id": appointmentID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "appointment.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"appointment_id": appointmentID},
	})

	return s.GetByID(ctx, actor, appointmentID)
}

func (s *appointmentService) Delete(ctx context.Context, actor access.Actor, appointmentID int64) error {
	if _, err := s.scoped(ctx, actor, appointmentID); err != nil {
		return err
	}

	res, err := s.col().DeleteOne(ctx, bson.M{"appointment_id": appointmentID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "appointment.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"appointment_id": appointmentID},
	})
	return nil
}

// ---------------------------------------------------------------------------
// Outcome transitions
// ---------------------------------------------------------------------------

type transition struct {
	completed    bool
	status       string
	completion   string
	event        string
	setCancelled bool
	requireNote  bool
}

func resolveOutcome(outcome string) (transition, error) {
	switch outcome {
	case OutcomeCompleted:
		return transition{completed: true, status: model.AppointmentCompleted, completion: model.CompletionCompleted, event: "appointment.complete"}, nil
	case OutcomeCompletedManual:
		return transition{completed: true, status: model.AppointmentCompleted, completion: model.CompletionCompletedManual, event: "appointment.complete"}, nil
	case OutcomeCancelledSameDay, OutcomeCancelledOnTheDay:
		return transition{status: model.AppointmentCancelledSameDay, completion: model.CompletionCancelledSameDay, event: "appointment.cancel", setCancelled: true}, nil
	case OutcomeCancelledResched:
		return transition{status: model.AppointmentCancelled, completion: model.CompletionCancelledReschedule, event: "appointment.cancel", setCancelled: true, requireNote: true}, nil
	case OutcomeOther:
		return transition{status: model.AppointmentOther, completion: model.CompletionOther, event: "appointment.update", requireNote: true}, nil
	}
	return transition{}, ErrInvalidOutcome
}

func (s *appointmentService) Outcome(ctx context.Context, actor access.Actor, req OutcomeRequest) (*OutcomeResult, error) {
	tr, err := resolveOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}
	if tr.requireNote && strings.TrimSpace(req.Note) == "" {
		return nil, ErrNoteRequired
	}

	_, err = s.scoped(ctx, actor, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	set := bson.M{
		"completed":         tr.completed,
		"status":            tr.status,
		"completion_status": tr.completion,
		"updatedAt":         now,
		"updatedBy":         actor.UserID,
	}
	if req.Note != "" {
		enc := s.codec.Encryptor()
		set["completion_note"] = enc.String(req.Note)
		if err := enc.Err(); err != nil {
			return nil, err
		}
	}
	if tr.setCancelled {
		set["cancelled_at"] = now
	}

	if _, err := s.col().UpdateOne(ctx, bson.M{"appointment_id": req.AppointmentID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, tr.event, true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"appointment_id": req.AppointmentID, "outcome": req.Outcome},
	})

	updated, err := s.scoped(ctx, actor, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	result := &OutcomeResult{}
	v := s.toView(updated)
	result.Appointment = &v

	if inv := s.autoInvoice(ctx, actor, updated, req.Outcome); inv != nil {
		result.InvoiceNumber = inv.InvoiceNumber
		result.InvoiceTotal = inv.TotalDue
	}
	return result, nil
}

// autoInvoice runs the billing side effect of an outcome. Monthly-billed
// patients are invoiced in bulk elsewhere; completed_manual explicitly skips
// billing. Failures are logged, never surfaced: the transition already
// happened.
func (s *appointmentService) autoInvoice(ctx context.Context, actor access.Actor, a *model.Appointment, outcome string) *model.Invoice {
	var multiplier float64
	switch outcome {
	case OutcomeCompleted:
		multiplier = 1.0
	case OutcomeCancelledSameDay, OutcomeCancelledOnTheDay:
		multiplier = 0.5
	default:
		return nil
	}

	patient, err := s.loadPatient(ctx, a.PatientID)
	if err != nil {
		slog.Warn("auto-invoice skipped, patient missing", "appointment_id", a.AppointmentID)
		return nil
	}
	if patient.BillingMode == model.BillingMonthly {
		return nil
	}

	inv, _, err := s.invoices.AutoCreate(ctx, actor, a, multiplier)
	if err != nil {
		slog.Error("auto-invoice failed", "appointment_id", a.AppointmentID, "error", err)
		return nil
	}
	return inv
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

func (s *appointmentService) SetTreatmentNotes(ctx context.Context, actor access.Actor, appointmentID int64, notes string) (*View, error) {
	if _, err := s.scoped(ctx, actor, appointmentID); err != nil {
		return nil, err
	}

	enc := s.codec.Encryptor()
	stored := enc.String(notes)
	if err := enc.Err(); err != nil {
		return nil, err
	}

	_, err := s.col().UpdateOne(ctx, bson.M{"appointment_id": appointmentID}, bson.M{
		"$set": bson.M{"treatment_notes": stored, "updatedAt": time.Now().UTC(), "updatedBy": actor.UserID},
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "appointment.note.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"appointment_id": appointmentID},
	})
	return s.GetByID(ctx, actor, appointmentID)
}

func (s *appointmentService) AddClinicalNote(ctx context.Context, actor access.Actor, appointmentID int64, note string) (*View, error) {
	if strings.TrimSpace(note) == "" {
		return nil, ErrValidation
	}
	if _, err := s.scoped(ctx, actor, appointmentID); err != nil {
		return nil, err
	}

	enc := s.codec.Encryptor()
	stored := enc.String(note)
	if err := enc.Err(); err != nil {
		return nil, err
	}

	entry := model.ClinicalNote{
		Author:    &actor.UserID,
		Note:      stored,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.col().UpdateOne(ctx, bson.M{"appointment_id": appointmentID}, bson.M{
		"$push": bson.M{"clinical_notes": entry},
		"$set":  bson.M{"updatedAt": entry.CreatedAt, "updatedBy": actor.UserID},
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "appointment.clinical_note.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"appointment_id": appointmentID},
	})
	return s.GetByID(ctx, actor, appointmentID)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *appointmentService) loadPatient(ctx context.Context, patientID int64) (*model.Patient, error) {
	var p model.Patient
	err := s.db.Collection(model.ColPatients).FindOne(ctx, bson.M{"patient_id": patientID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *appointmentService) toView(a *model.Appointment) View {
	notes := make([]ClinicalNoteView, 0, len(a.ClinicalNotes))
	for _, n := range a.ClinicalNotes {
		author := ""
		if n.Author != nil {
			author = n.Author.Hex()
		}
		notes = append(notes, ClinicalNoteView{
			Author:    author,
			Note:      s.codec.DecryptString(n.Note),
			CreatedAt: n.CreatedAt,
		})
	}

	return View{
		ID:            a.ID.Hex(),
		AppointmentID: a.AppointmentID,
		SeriesID:      a.SeriesID,
		PatientID:     a.PatientID,
		EmployeeID:    a.EmployeeID,

		Date:            a.Date,
		DurationMinutes: a.DurationMinutes,
		Location:        a.Location,
		Room:            a.Room,

		FirstName: s.codec.DecryptString(a.FirstName),
		Surname:   s.codec.DecryptString(a.Surname),
		Contact:   s.codec.DecryptString(a.Contact),

		Completed:          a.Completed,
		Status:             a.Status,
		CompletionStatus:   a.CompletionStatus,
		CompletionNote:     s.codec.DecryptString(a.CompletionNote),
		CancellationReason: a.CancellationReason,
		CancelledAt:        a.CancelledAt,

		TreatmentID:          a.TreatmentID,
		TreatmentDescription: a.TreatmentDescription,
		TreatmentCount:       a.TreatmentCount,
		Price:                a.Price,
		BillingMode:          a.BillingMode,

		Recurrence:     a.Recurrence,
		TreatmentNotes: s.codec.DecryptString(a.TreatmentNotes),
		ClinicalNotes:  notes,

		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
