// Package payment records money received against invoices and keeps the
// invoice and receipt sides consistent: every mutation re-reconciles the
// affected invoice and applied payments always carry a receipt.
package payment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/internal/service/invoice"
	"github.com/bridgesphysio/bridges_backend/internal/service/profitloss"
	"github.com/bridgesphysio/bridges_backend/internal/service/receipt"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	InvoiceNumber string
	InvoiceID     *int64
	AppointmentID *int64
	Amount        float64
	Method        string
	Status        string
	PaymentDate   string
	Reference     string
	Notes         string
}

type UpdateRequest struct {
	Amount      *float64
	Method      *string
	Status      *string
	PaymentDate *string
	Reference   *string
	Notes       *string
}

// PayRequest settles an invoice directly. A nil amount means the full
// outstanding balance.
type PayRequest struct {
	Amount    *float64
	Method    string
	Reference string
	Notes     string
}

type ListRequest struct {
	PatientID     *int64
	AppointmentID *int64
	InvoiceID     *int64
	InvoiceNumber string
	Method        string
	Status        string
	From          *time.Time
	To            *time.Time
	Page          int
	PerPage       int
}

// InvoiceSummary is the invoice snippet embedded in a payment listing.
type InvoiceSummary struct {
	InvoiceNumber string  `json:"invoice_number"`
	Status        string  `json:"status"`
	TotalDue      float64 `json:"total_due"`
	BalanceDue    float64 `json:"balance_due"`
}

// ReceiptSummary is the receipt snippet embedded in a payment listing.
type ReceiptSummary struct {
	ReceiptNumber string `json:"receipt_number"`
	Status        string `json:"status"`
	PDFURL        string `json:"pdf_url,omitempty"`
}

// View is the decrypted payment projection returned to handlers.
type View struct {
	ID            string     `json:"id"`
	PaymentID     int64      `json:"payment_id"`
	InvoiceID     *int64     `json:"invoice_id,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	PatientID     int64      `json:"patient_id"`
	AppointmentID *int64     `json:"appointment_id,omitempty"`
	AmountPaid    float64    `json:"amount_paid"`
	Currency      string     `json:"currency,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	Reference     string     `json:"reference,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`

	Invoice *InvoiceSummary `json:"invoice_summary,omitempty"`
	Receipt *ReceiptSummary `json:"receipt_summary,omitempty"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error)
	GetByID(ctx context.Context, actor access.Actor, paymentID int64) (*View, error)
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
	Update(ctx context.Context, actor access.Actor, paymentID int64, req UpdateRequest) (*View, error)
	Delete(ctx context.Context, actor access.Actor, paymentID int64) error

	// PayInvoice records a payment straight against an invoice number,
	// defaulting to the outstanding balance.
	PayInvoice(ctx context.Context, actor access.Actor, invoiceNumber string, req PayRequest) (*View, error)
}

type paymentService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
	scope    access.Service
	invoices invoice.Service
	receipts receipt.Service
	ledger   profitloss.Service
	codec    *fieldcrypt.Codec

	backfillOnce sync.Once
}

func New(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	invoices invoice.Service,
	receipts receipt.Service,
	ledger profitloss.Service,
	codec *fieldcrypt.Codec,
) Service {
	return &paymentService{
		db:       db,
		counters: counters,
		auditor:  auditor,
		scope:    scope,
		invoices: invoices,
		receipts: receipts,
		ledger:   ledger,
		codec:    codec,
	}
}

func (s *paymentService) col() *mongo.Collection {
	return s.db.Collection(model.ColPayments)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func (s *paymentService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error) {
	if req.Amount <= 0 {
		return nil, ErrValidation
	}
	if req.Method != "" && !model.ValidMethod(req.Method) {
		return nil, ErrValidation
	}
	if req.Status != "" && !model.ValidPaymentStatus(req.Status) {
		return nil, ErrValidation
	}

	inv, err := s.resolveInvoice(ctx, req.InvoiceNumber, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceVoid {
		return nil, ErrVoidInvoice
	}
	if req.AppointmentID != nil && !invoiceReferences(inv, *req.AppointmentID) {
		return nil, ErrValidation
	}

	p, err := s.build(ctx, actor, inv, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.col().InsertOne(ctx, *p); err != nil {
		return nil, err
	}

	reconciled, err := s.invoices.Reconcile(ctx, inv.InvoiceID)
	if err != nil {
		return nil, err
	}
	if reconciled.Status == model.InvoicePaid {
		if err := s.ledger.RecordInvoiceIncome(ctx, actor, reconciled); err != nil {
			slog.Warn("ledger income row not recorded", "invoice_number", reconciled.InvoiceNumber, "error", err)
		}
	}
	if p.Status == model.PaymentApplied {
		if _, _, err := s.receipts.EnsureForPayment(ctx, actor, p); err != nil {
			slog.Warn("receipt issuance failed", "payment_id", p.PaymentID, "error", err)
		}
	}

	s.auditor.Record(ctx, "payment.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{
			"payment_id":     p.PaymentID,
			"invoice_number": p.InvoiceNumber,
			"amount":         p.AmountPaid,
		},
	})

	return s.GetByID(ctx, actor, p.PaymentID)
}

func (s *paymentService) build(ctx context.Context, actor access.Actor, inv *model.Invoice, req CreateRequest) (*model.Payment, error) {
	paymentID, err := s.counters.Next(ctx, model.CounterPaymentID, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := now
	if req.PaymentDate != "" {
		if t, perr := time.Parse("2006-01-02", req.PaymentDate); perr == nil {
			date = t
		}
	}

	method := req.Method
	if method == "" {
		method = model.MethodOther
	}
	status := req.Status
	if status == "" {
		status = model.PaymentApplied
	}

	enc := s.codec.Encryptor()
	p := model.Payment{
		PaymentID:     paymentID,
		InvoiceID:     &inv.InvoiceID,
		InvoiceNumber: inv.InvoiceNumber,
		PatientID:     inv.PatientID,
		AppointmentID: resolveAppointment(req.AppointmentID, inv),
		AmountPaid:    req.Amount,
		Currency:      inv.Currency,
		PaymentDate:   &date,
		Method:        method,
		Status:        status,
		Reference:     enc.String(req.Reference),
		Notes:         enc.String(req.Notes),
		RecordedBy:    &actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func invoiceReferences(inv *model.Invoice, apptID int64) bool {
	if inv.AppointmentID != nil && *inv.AppointmentID == apptID {
		return true
	}
	for _, id := range inv.AppointmentIDs {
		if id == apptID {
			return true
		}
	}
	return false
}

// resolveAppointment picks the appointment a payment applies to: the explicit
// one, failing that the invoice's primary, failing that its first linked one.
func resolveAppointment(explicit *int64, inv *model.Invoice) *int64 {
	if explicit != nil {
		return explicit
	}
	if inv.AppointmentID != nil {
		return inv.AppointmentID
	}
	if len(inv.AppointmentIDs) > 0 {
		id := inv.AppointmentIDs[0]
		return &id
	}
	return nil
}

func (s *paymentService) resolveInvoice(ctx context.Context, number string, id *int64) (*model.Invoice, error) {
	var (
		inv *model.Invoice
		err error
	)
	switch {
	case number != "":
		inv, err = s.invoices.RawByNumber(ctx, number)
	case id != nil:
		inv, err = s.invoices.RawByID(ctx, *id)
	default:
		return nil, ErrValidation
	}
	if err == invoice.ErrNotFound {
		return nil, ErrInvoiceNotFound
	}
	return inv, err
}

// ---------------------------------------------------------------------------
// PayInvoice
// ---------------------------------------------------------------------------

func (s *paymentService) PayInvoice(ctx context.Context, actor access.Actor, invoiceNumber string, req PayRequest) (*View, error) {
	inv, err := s.resolveInvoice(ctx, invoiceNumber, nil)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceVoid {
		return nil, ErrVoidInvoice
	}
	if inv.BalanceDue <= 0 {
		return nil, ErrNothingDue
	}

	amount := inv.BalanceDue
	if req.Amount != nil {
		amount = *req.Amount
		if amount <= 0 {
			return nil, ErrValidation
		}
		if amount > inv.BalanceDue {
			amount = inv.BalanceDue
		}
	}

	return s.Create(ctx, actor, CreateRequest{
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        amount,
		Method:        req.Method,
		Reference:     req.Reference,
		Notes:         req.Notes,
	})
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *paymentService) GetByID(ctx context.Context, actor access.Actor, paymentID int64) (*View, error) {
	filter, err := s.scope.DerivedFilter(ctx, actor, bson.M{"payment_id": paymentID})
	if err != nil {
		return nil, err
	}

	var p model.Payment
	err = s.col().FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	v := s.toView(&p)
	s.enrich(ctx, &v, &p)
	return &v, nil
}

func (s *paymentService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
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
	if req.AppointmentID != nil {
		base["appointment_id"] = *req.AppointmentID
	}
	if req.InvoiceID != nil {
		base["invoice_id"] = *req.InvoiceID
	}
	if req.InvoiceNumber != "" {
		base["invoice_number"] = req.InvoiceNumber
	}
	if req.Method != "" {
		base["method"] = req.Method
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
		base["payment_date"] = window
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
		SetSort(bson.M{"payment_id": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Payment
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		v := s.toView(&rows[i])
		s.enrich(ctx, &v, &rows[i])
		out = append(out, v)
	}

	if receiptGap(out) {
		s.triggerBackfill(ctx, actor)
	}
	return out, total, nil
}

// receiptGap reports whether the listing surfaced payments that predate
// automatic receipts.
func receiptGap(views []View) bool {
	for i := range views {
		if views[i].Receipt == nil {
			return true
		}
	}
	return false
}

// triggerBackfill repairs missing receipts at most once per process, off the
// request path.
func (s *paymentService) triggerBackfill(ctx context.Context, actor access.Actor) {
	s.backfillOnce.Do(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
			defer cancel()
			if _, err := s.receipts.Backfill(ctx, actor); err != nil {
				slog.Warn("receipt backfill failed", "error", err)
			}
		}()
	})
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func (s *paymentService) Update(ctx context.Context, actor access.Actor, paymentID int64, req UpdateRequest) (*View, error) {
	var p model.Payment
	err := s.col().FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	enc := s.codec.Encryptor()
	set := bson.M{"updatedAt": time.Now().UTC()}

	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, ErrValidation
		}
		set["amount_paid"] = *req.Amount
	}
	if req.Method != nil {
		if !model.ValidMethod(*req.Method) {
			return nil, ErrValidation
		}
		set["method"] = *req.Method
	}
	if req.Status != nil {
		if !model.ValidPaymentStatus(*req.Status) {
			return nil, ErrValidation
		}
		set["status"] = *req.Status
	}
	if req.PaymentDate != nil {
		if t, perr := time.Parse("2006-01-02", *req.PaymentDate); perr == nil {
			set["payment_date"] = t
		}
	}
	if req.Reference != nil {
		set["reference"] = enc.String(*req.Reference)
	}
	if req.Notes != nil {
		set["notes"] = enc.String(*req.Notes)
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}

	if _, err := s.col().UpdateOne(ctx, bson.M{"payment_id": paymentID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	var updated model.Payment
	if err := s.col().FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&updated); err != nil {
		return nil, err
	}

	if updated.InvoiceID != nil {
		reconciled, err := s.invoices.Reconcile(ctx, *updated.InvoiceID)
		if err != nil {
			return nil, err
		}
		if reconciled.Status == model.InvoicePaid {
			if err := s.ledger.RecordInvoiceIncome(ctx, actor, reconciled); err != nil {
				slog.Warn("ledger income row not recorded", "invoice_number", reconciled.InvoiceNumber, "error", err)
			}
		}
	}
	if updated.Status == model.PaymentApplied {
		if _, _, err := s.receipts.EnsureForPayment(ctx, actor, &updated); err == nil {
			if err := s.receipts.RefreshForPayment(ctx, &updated); err != nil {
				slog.Warn("receipt refresh failed", "payment_id", paymentID, "error", err)
			}
		}
	}

	s.auditor.Record(ctx, "payment.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"payment_id": paymentID},
	})

	return s.GetByID(ctx, actor, paymentID)
}

func (s *paymentService) Delete(ctx context.Context, actor access.Actor, paymentID int64) error {
	var p model.Payment
	err := s.col().FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := s.col().DeleteOne(ctx, bson.M{"payment_id": paymentID}); err != nil {
		return err
	}

	if p.InvoiceID != nil {
		if _, err := s.invoices.Reconcile(ctx, *p.InvoiceID); err != nil {
			return err
		}
	}
	if err := s.receipts.RemoveForPayment(ctx, paymentID); err != nil {
		slog.Warn("receipt removal failed", "payment_id", paymentID, "error", err)
	}

	s.auditor.Record(ctx, "payment.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"payment_id": paymentID, "invoice_number": p.InvoiceNumber},
	})
	return nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *paymentService) toView(p *model.Payment) View {
	return View{
		ID:            p.ID.Hex(),
		PaymentID:     p.PaymentID,
		InvoiceID:     p.InvoiceID,
		InvoiceNumber: p.InvoiceNumber,
		PatientID:     p.PatientID,
		AppointmentID: p.AppointmentID,
		AmountPaid:    p.AmountPaid,
		Currency:      p.Currency,
		PaymentDate:   p.PaymentDate,
		Method:        p.Method,
		Status:        p.Status,
		Reference:     s.codec.DecryptString(p.Reference),
		Notes:         s.codec.DecryptString(p.Notes),
		CreatedAt:     p.CreatedAt,
	}
}

func (s *paymentService) enrich(ctx context.Context, v *View, p *model.Payment) {
	if p.InvoiceNumber != "" {
		if inv, err := s.invoices.RawByNumber(ctx, p.InvoiceNumber); err == nil {
			v.Invoice = &InvoiceSummary{
				InvoiceNumber: inv.InvoiceNumber,
				Status:        inv.Status,
				TotalDue:      inv.TotalDue,
				BalanceDue:    inv.BalanceDue,
			}
		}
	}

	var r model.Receipt
	err := s.db.Collection(model.ColReceipts).FindOne(ctx, bson.M{"payment_id": p.PaymentID}).Decode(&r)
	if err == nil {
		v.Receipt = &ReceiptSummary{
			ReceiptNumber: r.ReceiptNumber,
			Status:        r.Status,
			PDFURL:        r.PDFURL,
		}
	}
}
