// Package invoice implements the billing engine: totals derivation, invoice
// lifecycle, reconciliation against payments, PDF rendering and delivery.
package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/internal/service/mailer"
	"github.com/bridgesphysio/bridges_backend/pkg/email"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
	"github.com/bridgesphysio/bridges_backend/pkg/pdf"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type DiscountInput struct {
	InvoiceAmount float64
	Notes         string
}

type BillingContactInput struct {
	Name  string
	Email string
	Phone string
}

type CreateRequest struct {
	PatientID      int64
	AppointmentID  *int64
	AppointmentIDs []int64
	LineItems      []LineInput
	Discount       DiscountInput
	BillingContact *BillingContactInput
	IssueDate      string
	DueDate        string
	Currency       string
	Notes          string
	SendEmail      bool
}

type UpdateRequest struct {
	LineItems      []LineInput
	Discount       *DiscountInput
	BillingContact *BillingContactInput
	DueDate        *string
	Notes          *string
}

type ListRequest struct {
	PatientID     *int64
	Status        string
	AppointmentID *int64
	Page          int
	PerPage       int
}

// View is the decrypted invoice projection returned to handlers.
type View struct {
	ID             string           `json:"id"`
	InvoiceID      int64            `json:"invoice_id"`
	InvoiceNumber  string           `json:"invoice_number"`
	PatientID      int64            `json:"patient_id"`
	AppointmentID  *int64           `json:"appointment_id,omitempty"`
	AppointmentIDs []int64          `json:"appointment_ids,omitempty"`
	Status         string           `json:"status"`
	LineItems      []model.LineItem `json:"line_items"`
	Discount       *model.Discount  `json:"discount,omitempty"`
	Totals         *model.Totals    `json:"totals,omitempty"`
	Subtotal       float64          `json:"subtotal"`
	TotalDue       float64          `json:"total_due"`
	TotalPaid      float64          `json:"total_paid"`
	BalanceDue     float64          `json:"balance_due"`
	IssueDate      *time.Time       `json:"issue_date,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
	PaidAt         *time.Time       `json:"paid_at,omitempty"`
	PDFURL         string           `json:"pdf_url,omitempty"`
	EmailLog       *model.EmailLog  `json:"email_log,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	Notes          string           `json:"notes,omitempty"`

	BillingContactName  string `json:"billing_contact_name,omitempty"`
	BillingContactEmail string `json:"billing_contact_email,omitempty"`
	BillingContactPhone string `json:"billing_contact_phone,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error)
	GetByNumber(ctx context.Context, actor access.Actor, number string) (*View, error)
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
	Update(ctx context.Context, actor access.Actor, number string, req UpdateRequest) (*View, error)
	Send(ctx context.Context, actor access.Actor, number string) (*View, error)
	Void(ctx context.Context, actor access.Actor, number string) error
	PDF(ctx context.Context, actor access.Actor, number string) ([]byte, string, error)

	// AutoCreate generates the single-line invoice an appointment outcome
	// produces. Idempotent per appointment; the second return reports
	// whether a new invoice was created.
	AutoCreate(ctx context.Context, actor access.Actor, appt *model.Appointment, multiplier float64) (*model.Invoice, bool, error)

	// Reconcile recomputes total_paid, balance_due and status from the
	// applied payments referencing the invoice. Called after every
	// payment mutation.
	Reconcile(ctx context.Context, invoiceID int64) (*model.Invoice, error)

	// RawByNumber and RawByID expose stored documents to the payment
	// service, which performs its own access checks.
	RawByNumber(ctx context.Context, number string) (*model.Invoice, error)
	RawByID(ctx context.Context, invoiceID int64) (*model.Invoice, error)
}

type invoiceService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
	scope    access.Service
	mail     mailer.Service
	renderer *pdf.Renderer
	codec    *fieldcrypt.Codec
}

func New(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	mail mailer.Service,
	renderer *pdf.Renderer,
	codec *fieldcrypt.Codec,
) Service {
	return &invoiceService{
		db:       db,
		counters: counters,
		auditor:  auditor,
		scope:    scope,
		mail:     mail,
		renderer: renderer,
		codec:    codec,
	}
}

func (s *invoiceService) col() *mongo.Collection {
	return s.db.Collection(model.ColInvoices)
}

// ---------------------------------------------------------------------------
// Creation
// ---------------------------------------------------------------------------

func (s *invoiceService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error) {
	if len(req.LineItems) == 0 {
		return nil, ErrNoLineItems
	}

	patient, err := s.loadPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	apptIDs := dedupeAppointments(req.AppointmentID, req.AppointmentIDs)
	if err := s.checkAppointments(ctx, req.PatientID, apptIDs, 0); err != nil {
		return nil, err
	}

	inv, err := s.buildInvoice(ctx, actor, patient, req, apptIDs)
	if err != nil {
		return nil, err
	}

	if _, err := s.col().InsertOne(ctx, *inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// The unique multikey index on appointment_ids lost us the
			// race against a concurrent create.
			return nil, ErrAppointmentBilled
		}
		return nil, err
	}

	s.auditor.Record(ctx, "invoice.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"invoice_number": inv.InvoiceNumber, "patient_id": inv.PatientID},
	})

	s.renderAndStore(ctx, inv)

	if req.SendEmail {
		s.deliver(ctx, actor, inv, patient, false)
	} else {
		s.persistArtifacts(ctx, inv)
	}

	stored, err := s.RawByNumber(ctx, inv.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	v := s.toView(stored)
	return &v, nil
}

func (s *invoiceService) buildInvoice(ctx context.Context, actor access.Actor, patient *model.Patient, req CreateRequest, apptIDs []int64) (*model.Invoice, error) {
	calc := CalculateTotals(req.LineItems, req.Discount.InvoiceAmount)

	invoiceID, err := s.counters.Next(ctx, model.CounterInvoiceID, 1)
	if err != nil {
		return nil, err
	}
	number, err := s.nextNumber(ctx)
	if err != nil {
		return nil, err
	}

	enc := s.codec.Encryptor()
	now := time.Now().UTC()

	inv := model.Invoice{
		InvoiceID:     invoiceID,
		InvoiceNumber: number,
		PatientID:     patient.PatientID,
		ClientID:      patient.PatientID,
		Patient:       &patient.ID,
		Status:        model.InvoiceDraft,
		Subtotal:      calc.Subtotal,
		TotalDue:      calc.TotalDue,
		BalanceDue:    calc.TotalDue,
		Currency:      req.Currency,
		CreatedBy:     &actor.UserID,
		UpdatedBy:     &actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if inv.Currency == "" {
		inv.Currency = model.DefaultCurrency
	}

	inv.LineItems = s.finishLines(calc.Lines, req.LineItems)
	inv.Discount = &model.Discount{
		Amount:         calc.LineDiscountTotal + calc.InvoiceDiscount,
		InvoiceAmount:  calc.InvoiceDiscount,
		LineItemAmount: calc.LineDiscountTotal,
		Notes:          enc.String(req.Discount.Notes),
	}
	inv.Totals = &model.Totals{
		Net:      calc.Subtotal,
		Discount: inv.Discount.Amount,
		Gross:    calc.TotalDue,
		Paid:     0,
		Balance:  calc.TotalDue,
	}
	inv.Notes = enc.String(req.Notes)

	if len(apptIDs) > 0 {
		inv.AppointmentIDs = apptIDs
		primary := apptIDs[0]
		if req.AppointmentID != nil {
			primary = *req.AppointmentID
		}
		inv.AppointmentID = &primary
	}

	if bc := req.BillingContact; bc != nil {
		inv.BillingContactName = enc.String(bc.Name)
		inv.BillingContactEmail = enc.String(bc.Email, fieldcrypt.Lowercase)
		inv.BillingContactPhone = enc.String(bc.Phone)
	} else {
		inv.BillingContactName = patient.FirstName // already encrypted
		inv.BillingContactEmail = patient.Email
		inv.BillingContactPhone = patient.Phone
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}

	issue := now
	if req.IssueDate != "" {
		if t, perr := time.Parse("2006-01-02", req.IssueDate); perr == nil {
			issue = t
		}
	}
	inv.IssueDate = &issue

	due := issue.AddDate(0, 0, 14)
	if req.DueDate != "" {
		if t, perr := time.Parse("2006-01-02", req.DueDate); perr == nil {
			due = t
		}
	}
	inv.DueDate = &due

	return &inv, nil
}

func (s *invoiceService) finishLines(lines []model.LineItem, inputs []LineInput) []model.LineItem {
	for i := range lines {
		lines[i].LineID = uuid.NewString()
		if i < len(inputs) && inputs[i].ServiceDate != "" {
			if t, err := time.Parse("2006-01-02", inputs[i].ServiceDate); err == nil {
				lines[i].ServiceDate = &t
			}
		}
	}
	return lines
}

// nextNumber allocates PREFIX-YYYY-NNNN from the invoice_number counter.
func (s *invoiceService) nextNumber(ctx context.Context) (string, error) {
	n, err := s.counters.Next(ctx, model.CounterInvoiceNumber, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", s.prefix(ctx), time.Now().UTC().Year(), n), nil
}

func (s *invoiceService) prefix(ctx context.Context) string {
	var settings model.ClinicSettings
	err := s.db.Collection(model.ColClinicSettings).FindOne(ctx, bson.M{}).Decode(&settings)
	if err != nil {
		return model.DefaultInvoicePrefix
	}
	return settings.Prefix()
}

// checkAppointments validates ownership and the one-invoice-per-appointment
// rule. excludeInvoiceID skips the invoice being updated.
func (s *invoiceService) checkAppointments(ctx context.Context, patientID int64, apptIDs []int64, excludeInvoiceID int64) error {
	if len(apptIDs) == 0 {
		return nil
	}

	n, err := s.db.Collection(model.ColAppointments).CountDocuments(ctx, bson.M{
		"appointment_id": bson.M{"$in": apptIDs},
		"patient_id":     patientID,
	})
	if err != nil {
		return err
	}
	if n != int64(len(apptIDs)) {
		return ErrAppointmentMismatch
	}

	filter := bson.M{"appointment_ids": bson.M{"$in": apptIDs}}
	if excludeInvoiceID != 0 {
		filter["invoice_id"] = bson.M{"$ne": excludeInvoiceID}
	}
	taken, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if taken > 0 {
		return ErrAppointmentBilled
	}
	return nil
}

// ---------------------------------------------------------------------------
// Automatic invoicing
// ---------------------------------------------------------------------------

func (s *invoiceService) AutoCreate(ctx context.Context, actor access.Actor, appt *model.Appointment, multiplier float64) (*model.Invoice, bool, error) {
	// Idempotence: an existing invoice referencing the appointment wins.
	var existing model.Invoice
	err := s.col().FindOne(ctx, bson.M{"appointment_ids": appt.AppointmentID}).Decode(&existing)
	if err == nil {
		return &existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	patient, err := s.loadPatient(ctx, appt.PatientID)
	if err != nil {
		return nil, false, err
	}

	desc := appt.TreatmentDescription
	if multiplier != 1 {
		desc = fmt.Sprintf("%s (cancellation fee)", desc)
	}

	req := CreateRequest{
		PatientID:     appt.PatientID,
		AppointmentID: &appt.AppointmentID,
		LineItems: []LineInput{{
			Description:   desc,
			Quantity:      1,
			UnitPrice:     appt.Price * multiplier,
			AppointmentID: &appt.AppointmentID,
			ServiceDate:   appt.Date.Format("2006-01-02"),
		}},
	}

	inv, err := s.buildInvoice(ctx, actor, patient, req, []int64{appt.AppointmentID})
	if err != nil {
		return nil, false, err
	}

	if _, err := s.col().InsertOne(ctx, *inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Raced with another transition; reload the winner.
			ferr := s.col().FindOne(ctx, bson.M{"appointment_ids": appt.AppointmentID}).Decode(&existing)
			if ferr != nil {
				return nil, false, ferr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	s.auditor.Record(ctx, "invoice.auto_create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role),
		Metadata: map[string]any{
			"invoice_number": inv.InvoiceNumber,
			"appointment_id": appt.AppointmentID,
			"multiplier":     multiplier,
		},
	})

	s.renderAndStore(ctx, inv)
	s.deliver(ctx, actor, inv, patient, multiplier != 1)

	stored, err := s.RawByNumber(ctx, inv.InvoiceNumber)
	if err != nil {
		return nil, false, err
	}
	return stored, true, nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *invoiceService) GetByNumber(ctx context.Context, actor access.Actor, number string) (*View, error) {
	filter, err := s.scope.InvoiceFilter(ctx, actor, bson.M{"invoice_number": number})
	if err != nil {
		return nil, err
	}

	var inv model.Invoice
	err = s.col().FindOne(ctx, filter).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v := s.toView(&inv)
	return &v, nil
}

func (s *invoiceService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}

	base := bson.M{}
	if req.PatientID != nil {
		base["patient_id"] = *req.PatientID
	}
	if req.Status != "" {
		base["status"] = req.Status
	}
	if req.AppointmentID != nil {
		base["appointment_ids"] = *req.AppointmentID
	}

	filter, err := s.scope.InvoiceFilter(ctx, actor, base)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"invoice_id": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Invoice
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, s.toView(&rows[i]))
	}
	return out, total, nil
}

func (s *invoiceService) RawByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var inv model.Invoice
	err := s.col().FindOne(ctx, bson.M{"invoice_number": number}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *invoiceService) RawByID(ctx context.Context, invoiceID int64) (*model.Invoice, error) {
	var inv model.Invoice
	err := s.col().FindOne(ctx, bson.M{"invoice_id": invoiceID}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (s *invoiceService) Update(ctx context.Context, actor access.Actor, number string, req UpdateRequest) (*View, error) {
	inv, err := s.RawByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceVoid {
		return nil, ErrVoid
	}

	enc := s.codec.Encryptor()
	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": actor.UserID}

	if len(req.LineItems) > 0 {
		discount := 0.0
		if req.Discount != nil {
			discount = req.Discount.InvoiceAmount
		} else if inv.Discount != nil {
			discount = inv.Discount.InvoiceAmount
		}
		calc := CalculateTotals(req.LineItems, discount)

		notes := ""
		if req.Discount != nil && req.Discount.Notes != "" {
			notes = enc.String(req.Discount.Notes)
		} else if inv.Discount != nil {
			// Manual discount notes survive a recalculation.
			notes = inv.Discount.Notes
		}

		set["line_items"] = s.finishLines(calc.Lines, req.LineItems)
		set["subtotal"] = calc.Subtotal
		set["total_due"] = calc.TotalDue
		set["discount"] = model.Discount{
			Amount:         calc.LineDiscountTotal + calc.InvoiceDiscount,
			InvoiceAmount:  calc.InvoiceDiscount,
			LineItemAmount: calc.LineDiscountTotal,
			Notes:          notes,
		}
	}

	if req.BillingContact != nil {
		set["billing_contact_name"] = enc.String(req.BillingContact.Name)
		set["billing_contact_email"] = enc.String(req.BillingContact.Email, fieldcrypt.Lowercase)
		set["billing_contact_phone"] = enc.String(req.BillingContact.Phone)
	}
	if req.DueDate != nil {
		if t, perr := time.Parse("2006-01-02", *req.DueDate); perr == nil {
			set["due_date"] = t
		}
	}
	if req.Notes != nil {
		set["notes"] = enc.String(*req.Notes)
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}

	if _, err := s.col().UpdateOne(ctx, bson.M{"invoice_number": number}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	// Totals changed, so the payment picture must be re-derived.
	if _, err := s.Reconcile(ctx, inv.InvoiceID); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "invoice.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"invoice_number": number},
	})

	updated, err := s.RawByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	s.renderAndStore(ctx, updated)
	s.persistArtifacts(ctx, updated)

	v := s.toView(updated)
	return &v, nil
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

func (s *invoiceService) Reconcile(ctx context.Context, invoiceID int64) (*model.Invoice, error) {
	inv, err := s.RawByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(model.ColPayments).Find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"invoice_id": inv.InvoiceID},
			bson.M{"invoice_number": inv.InvoiceNumber},
		},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var payments []model.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, err
	}

	totalPaid := 0.0
	for _, p := range payments {
		if p.Status == model.PaymentApplied {
			totalPaid += p.AmountPaid
		}
	}

	balance := Balance(inv.TotalDue, totalPaid)
	status := DeriveStatus(inv.Status, totalPaid, balance)

	set := bson.M{
		"total_paid":  totalPaid,
		"balance_due": balance,
		"status":      status,
		"totals": model.Totals{
			Net:      inv.Subtotal,
			Discount: discountAmount(inv),
			Gross:    inv.TotalDue,
			Paid:     totalPaid,
			Balance:  balance,
		},
		"updatedAt": time.Now().UTC(),
	}
	unset := bson.M{}
	if status == model.InvoicePaid {
		if inv.PaidAt == nil {
			now := time.Now().UTC()
			set["paid_at"] = now
		}
	} else {
		unset["paid_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.col().UpdateOne(ctx, bson.M{"invoice_id": invoiceID}, update); err != nil {
		return nil, err
	}

	return s.RawByID(ctx, invoiceID)
}

func discountAmount(inv *model.Invoice) float64 {
	if inv.Discount == nil {
		return 0
	}
	return inv.Discount.Amount
}

// ---------------------------------------------------------------------------
// Send / Void / PDF
// ---------------------------------------------------------------------------

func (s *invoiceService) Send(ctx context.Context, actor access.Actor, number string) (*View, error) {
	inv, err := s.RawByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceVoid {
		return nil, ErrVoid
	}

	patient, err := s.loadPatient(ctx, inv.PatientID)
	if err != nil {
		return nil, err
	}

	s.renderAndStore(ctx, inv)
	s.deliver(ctx, actor, inv, patient, false)

	s.auditor.Record(ctx, "invoice.send", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"invoice_number": number},
	})

	updated, err := s.RawByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	v := s.toView(updated)
	return &v, nil
}

// Void hard-deletes the invoice. Admin only, enforced at the HTTP layer; the
// row is gone afterwards so its appointments become billable again.
func (s *invoiceService) Void(ctx context.Context, actor access.Actor, number string) error {
	res, err := s.col().DeleteOne(ctx, bson.M{"invoice_number": number})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "invoice.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"invoice_number": number},
	})
	return nil
}

func (s *invoiceService) PDF(ctx context.Context, actor access.Actor, number string) ([]byte, string, error) {
	v, err := s.GetByNumber(ctx, actor, number)
	if err != nil {
		return nil, "", err
	}

	inv, err := s.RawByNumber(ctx, number)
	if err != nil {
		return nil, "", err
	}

	if inv.PDFPath != "" {
		if data, rerr := s.renderer.ReadStored(inv.PDFPath); rerr == nil {
			return data, v.InvoiceNumber + ".pdf", nil
		}
	}

	html := s.documentHTML(ctx, inv)
	data, err := s.renderer.Render(ctx, html)
	if err != nil {
		return nil, "", err
	}
	return data, v.InvoiceNumber + ".pdf", nil
}

// ---------------------------------------------------------------------------
// Rendering and delivery
// ---------------------------------------------------------------------------

func (s *invoiceService) documentHTML(ctx context.Context, inv *model.Invoice) string {
	branding := s.mail.Branding(ctx)

	lines := make([]model.LineItem, len(inv.LineItems))
	copy(lines, inv.LineItems)

	name := s.codec.DecryptString(inv.BillingContactName)
	return RenderHTML(DocumentData{
		ClinicName:          branding.ClinicName,
		ClinicLines:         clinicLines(branding),
		PatientName:         name,
		ContactEmail:        s.codec.DecryptString(inv.BillingContactEmail),
		Number:              inv.InvoiceNumber,
		IssueDate:           inv.IssueDate,
		DueDate:             inv.DueDate,
		Currency:            inv.Currency,
		Lines:               lines,
		Subtotal:            inv.Subtotal,
		InvoiceDiscount:     invoiceDiscount(inv),
		TotalDue:            inv.TotalDue,
		TotalPaid:           inv.TotalPaid,
		BalanceDue:          inv.BalanceDue,
		PaymentInstructions: branding.PaymentInstructions,
		Notes:               s.codec.DecryptString(inv.Notes),
	})
}

func invoiceDiscount(inv *model.Invoice) float64 {
	if inv.Discount == nil {
		return 0
	}
	return inv.Discount.InvoiceAmount
}

func clinicLines(b email.Branding) []string {
	var out []string
	if b.Phone != "" {
		out = append(out, b.Phone)
	}
	if b.Email != "" {
		out = append(out, b.Email)
	}
	return out
}

// renderAndStore refreshes pdf_path, pdf_url and html_snapshot on the
// in-memory invoice. PDF failure leaves the snapshot only; delivery and the
// enclosing request proceed regardless.
func (s *invoiceService) renderAndStore(ctx context.Context, inv *model.Invoice) {
	html := s.documentHTML(ctx, inv)
	inv.HTMLSnapshot = html

	doc, err := s.renderer.RenderAndStore(ctx, html, inv.InvoiceNumber)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	inv.PDFPath = doc.Path
	inv.PDFURL = doc.URL
	inv.PDFGeneratedAt = &now
}

// persistArtifacts writes the render artifacts back to the document.
func (s *invoiceService) persistArtifacts(ctx context.Context, inv *model.Invoice) {
	set := bson.M{"html_snapshot": inv.HTMLSnapshot}
	if inv.PDFPath != "" {
		set["pdf_path"] = inv.PDFPath
		set["pdf_url"] = inv.PDFURL
		set["pdf_generated_at"] = inv.PDFGeneratedAt
	}
	if inv.EmailLog != nil {
		set["email_log"] = inv.EmailLog
	}
	_, _ = s.col().UpdateOne(ctx, bson.M{"invoice_number": inv.InvoiceNumber}, bson.M{"$set": set})
}

// deliver emails the invoice with its PDF attached and applies the status
// effects of the outcome: accepted delivery promotes draft to sent.
func (s *invoiceService) deliver(ctx context.Context, actor access.Actor, inv *model.Invoice, patient *model.Patient, cancellationFee bool) {
	to := s.codec.DecryptString(patient.Email)
	branding := s.mail.Branding(ctx)

	tpl := email.TemplateInvoiceDelivery
	if cancellationFee {
		tpl = email.TemplateCancellationFee
	}
	override := s.mail.TemplateOverride(ctx, tpl)

	due := ""
	if inv.DueDate != nil {
		due = inv.DueDate.Format("02 Jan 2006")
	}
	msg := email.BuildInvoiceEmail(email.InvoiceEmailData{
		PatientName:     s.codec.DecryptString(patient.FirstName),
		Email:           to,
		InvoiceNumber:   inv.InvoiceNumber,
		TotalDue:        money(inv.Currency, inv.TotalDue),
		DueDate:         due,
		CancellationFee: cancellationFee,
		Branding:        branding,
	}, override)

	var attachments []email.Attachment
	if inv.PDFPath != "" {
		attachments = append(attachments, email.Attachment{
			Filename:    inv.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Path:        inv.PDFPath,
		})
	}

	res, _ := s.mail.Send(ctx, mailer.SendRequest{
		To:          msg.To,
		Subject:     msg.Subject,
		HTML:        msg.HTMLBody,
		Text:        msg.TextBody,
		Attachments: attachments,
		PatientID:   &patient.PatientID,
		Actor:       &actor.UserID,
		Metadata:    map[string]any{"invoice_number": inv.InvoiceNumber},
	})

	now := time.Now().UTC()
	inv.EmailLog = &model.EmailLog{
		Status:            string(res.Status),
		Provider:          res.Provider,
		ProviderMessageID: res.ProviderMessageID,
		Error:             res.ErrorMessage,
		To:                to,
		SentAt:            &now,
	}

	if res.Status == email.StatusSent || res.Status == email.StatusQueued {
		if inv.Status == model.InvoiceDraft {
			inv.Status = model.InvoiceSent
		}
		inv.SentAt = &now
		_, _ = s.col().UpdateOne(ctx, bson.M{"invoice_number": inv.InvoiceNumber}, bson.M{
			"$set": bson.M{"status": inv.Status, "sent_at": now},
		})
	}
	s.persistArtifacts(ctx, inv)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *invoiceService) loadPatient(ctx context.Context, patientID int64) (*model.Patient, error) {
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

func dedupeAppointments(primary *int64, ids []int64) []int64 {
	seen := map[int64]bool{}
	var out []int64
	add := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if primary != nil {
		add(*primary)
	}
	for _, id := range ids {
		add(id)
	}
	return out
}

func (s *invoiceService) toView(inv *model.Invoice) View {
	v := View{
		ID:             inv.ID.Hex(),
		InvoiceID:      inv.InvoiceID,
		InvoiceNumber:  inv.InvoiceNumber,
		PatientID:      inv.PatientID,
		AppointmentID:  inv.AppointmentID,
		AppointmentIDs: inv.AppointmentIDs,
		Status:         inv.Status,
		LineItems:      inv.LineItems,
		Totals:         inv.Totals,
		Subtotal:       inv.Subtotal,
		TotalDue:       inv.TotalDue,
		TotalPaid:      inv.TotalPaid,
		BalanceDue:     inv.BalanceDue,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		SentAt:         inv.SentAt,
		PaidAt:         inv.PaidAt,
		PDFURL:         inv.PDFURL,
		EmailLog:       inv.EmailLog,
		Currency:       inv.Currency,
		Notes:          s.codec.DecryptString(inv.Notes),

		BillingContactName:  s.codec.DecryptString(inv.BillingContactName),
		BillingContactEmail: s.codec.DecryptString(inv.BillingContactEmail),
		BillingContactPhone: s.codec.DecryptString(inv.BillingContactPhone),

		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
	if inv.Discount != nil {
		d := *inv.Discount
		d.Notes = s.codec.DecryptString(d.Notes)
		v.Discount = &d
	}
	return v
}
