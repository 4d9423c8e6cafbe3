// Package receipt issues and delivers payment receipts. Every applied payment
// gets exactly one receipt; creation is idempotent on payment_id.
package receipt

import (
	"context"
	"fmt"
	"time"

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

type ListRequest struct {
	PatientID *int64
	PaymentID *int64
	Status    string
	Page      int
	PerPage   int
}

// View is the receipt projection returned to handlers.
type View struct {
	ID            string          `json:"id"`
	ReceiptID     int64           `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	PaymentID     int64           `json:"payment_id"`
	InvoiceID     *int64          `json:"invoice_id,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	PatientID     int64           `json:"patient_id"`
	AmountPaid    float64         `json:"amount_paid"`
	Currency      string          `json:"currency,omitempty"`
	Method        string          `json:"method,omitempty"`
	Status        string          `json:"status"`
	ReceiptDate   *time.Time      `json:"receipt_date,omitempty"`
	PDFURL        string          `json:"pdf_url,omitempty"`
	EmailLog      *model.EmailLog `json:"email_log,omitempty"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}

// BackfillResult reports what a receipt backfill run did.
type BackfillResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	// EnsureForPayment creates the receipt for an applied payment if one
	// does not exist yet. The second return reports creation.
	EnsureForPayment(ctx context.Context, actor access.Actor, p *model.Payment) (*model.Receipt, bool, error)

	// RefreshForPayment re-mirrors amount, method and invoice reference
	// after a payment edit.
	RefreshForPayment(ctx context.Context, p *model.Payment) error

	// RemoveForPayment deletes the receipt when its payment is deleted.
	RemoveForPayment(ctx context.Context, paymentID int64) error

	// Backfill creates receipts for applied payments that predate
	// automatic issuance.
	Backfill(ctx context.Context, actor access.Actor) (BackfillResult, error)

	GetByNumber(ctx context.Context, actor access.Actor, number string) (*View, error)
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
	Send(ctx context.Context, actor access.Actor, number string) (*View, error)
	SendByPaymentID(ctx context.Context, actor access.Actor, paymentID int64) (*View, error)
	PDF(ctx context.Context, actor access.Actor, number string) ([]byte, string, error)
}

type receiptService struct {
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
	return &receiptService{
		db:       db,
		counters: counters,
		auditor:  auditor,
		scope:    scope,
		mail:     mail,
		renderer: renderer,
		codec:    codec,
	}
}

func (s *receiptService) col() *mongo.Collection {
	return s.db.Collection(model.ColReceipts)
}

// ---------------------------------------------------------------------------
// Issuance
// ---------------------------------------------------------------------------

func (s *receiptService) EnsureForPayment(ctx context.Context, actor access.Actor, p *model.Payment) (*model.Receipt, bool, error) {
	var existing model.Receipt
	err := s.col().FindOne(ctx, bson.M{"payment_id": p.PaymentID}).Decode(&existing)
	if err == nil {
		return &existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	receiptID, err := s.counters.Next(ctx, model.CounterReceiptID, 1)
	if err != nil {
		return nil, false, err
	}
	seq, err := s.counters.Next(ctx, model.CounterReceiptNumber, 1)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	date := now
	if p.PaymentDate != nil {
		date = *p.PaymentDate
	}

	r := model.Receipt{
		ReceiptID:     receiptID,
		ReceiptNumber: formatNumber(seq),
		PaymentID:     p.PaymentID,
		InvoiceID:     p.InvoiceID,
		InvoiceNumber: p.InvoiceNumber,
		PatientID:     p.PatientID,
		AmountPaid:    p.AmountPaid,
		Currency:      p.Currency,
		Method:        p.Method,
		Status:        model.ReceiptDraft,
		ReceiptDate:   &date,
		CreatedBy:     &actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.col().InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			ferr := s.col().FindOne(ctx, bson.M{"payment_id": p.PaymentID}).Decode(&existing)
			if ferr != nil {
				return nil, false, ferr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	s.renderAndPersist(ctx, &r)
	return &r, true, nil
}

func (s *receiptService) RefreshForPayment(ctx context.Context, p *model.Payment) error {
	set := bson.M{
		"amount_paid": p.AmountPaid,
		"method":      p.Method,
		"currency":    p.Currency,
		"updatedAt":   time.Now().UTC(),
	}
	if p.InvoiceID != nil {
		set["invoice_id"] = *p.InvoiceID
	}
	if p.InvoiceNumber != "" {
		set["invoice_number"] = p.InvoiceNumber
	}
	if p.PaymentDate != nil {
		set["receipt_date"] = *p.PaymentDate
	}

	res, err := s.col().UpdateOne(ctx, bson.M{"payment_id": p.PaymentID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return nil
	}

	var r model.Receipt
	if err := s.col().FindOne(ctx, bson.M{"payment_id": p.PaymentID}).Decode(&r); err != nil {
		return err
	}
	s.renderAndPersist(ctx, &r)
	return nil
}

func (s *receiptService) RemoveForPayment(ctx context.Context, paymentID int64) error {
	_, err := s.col().DeleteOne(ctx, bson.M{"payment_id": paymentID})
	return err
}

func (s *receiptService) Backfill(ctx context.Context, actor access.Actor) (BackfillResult, error) {
	var out BackfillResult

	cur, err := s.db.Collection(model.ColPayments).Find(ctx, bson.M{"status": model.PaymentApplied})
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)

	var payments []model.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return out, err
	}

	for i := range payments {
		_, created, err := s.EnsureForPayment(ctx, actor, &payments[i])
		if err != nil {
			return out, err
		}
		if created {
			out.Created++
		} else {
			out.Skipped++
		}
	}

	s.auditor.Record(ctx, "receipt.backfill", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"created": out.Created, "skipped": out.Skipped},
	})
	return out, nil
}

func formatNumber(seq int64) string {
	return fmt.Sprintf("RCT-%d-%04d", time.Now().UTC().Year(), seq)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *receiptService) GetByNumber(ctx context.Context, actor access.Actor, number string) (*View, error) {
	r, err := s.scoped(ctx, actor, bson.M{"receipt_number": number})
	if err != nil {
		return nil, err
	}
	v := toView(r)
	return &v, nil
}

func (s *receiptService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
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
	if req.PaymentID != nil {
		base["payment_id"] = *req.PaymentID
	}
	if req.Status != "" {
		base["status"] = req.Status
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
		SetSort(bson.M{"receipt_id": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Receipt
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, toView(&rows[i]))
	}
	return out, total, nil
}

func (s *receiptService) scoped(ctx context.Context, actor access.Actor, base bson.M) (*model.Receipt, error) {
	filter, err := s.scope.DerivedFilter(ctx, actor, base)
	if err != nil {
		return nil, err
	}
	var r model.Receipt
	err = s.col().FindOne(ctx, filter).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ---------------------------------------------------------------------------
// Delivery
// ---------------------------------------------------------------------------

func (s *receiptService) Send(ctx context.Context, actor access.Actor, number string) (*View, error) {
	r, err := s.scoped(ctx, actor, bson.M{"receipt_number": number})
	if err != nil {
		return nil, err
	}
	return s.send(ctx, actor, r)
}

func (s *receiptService) SendByPaymentID(ctx context.Context, actor access.Actor, paymentID int64) (*View, error) {
	r, err := s.scoped(ctx, actor, bson.M{"payment_id": paymentID})
	if err != nil {
		return nil, err
	}
	return s.send(ctx, actor, r)
}

func (s *receiptService) send(ctx context.Context, actor access.Actor, r *model.Receipt) (*View, error) {
	patient, err := s.loadPatient(ctx, r.PatientID)
	if err != nil {
		return nil, err
	}

	s.renderAndPersist(ctx, r)

	branding := s.mail.Branding(ctx)
	override := s.mail.TemplateOverride(ctx, email.TemplateReceiptDelivery)

	date := ""
	if r.ReceiptDate != nil {
		date = r.ReceiptDate.Format("02 Jan 2006")
	}
	msg := email.BuildReceiptEmail(email.ReceiptEmailData{
		PatientName:   s.codec.DecryptString(patient.FirstName),
		Email:         s.codec.DecryptString(patient.Email),
		ReceiptNumber: r.ReceiptNumber,
		AmountPaid:    money(r.Currency, r.AmountPaid),
		PaymentDate:   date,
		Method:        r.Method,
		Branding:      branding,
	}, override)

	var attachments []email.Attachment
	if r.PDFPath != "" {
		attachments = append(attachments, email.Attachment{
			Filename:    r.ReceiptNumber + ".pdf",
			ContentType: "application/pdf",
			Path:        r.PDFPath,
		})
	}

	res, _ := s.mail.Send(ctx, mailer.SendRequest{
		To:          msg.To,
		Subject:     msg.Subject,
		HTML:        msg.HTMLBody,
		Text:        msg.TextBody,
		Attachments: attachments,
		PatientID:   &r.PatientID,
		Actor:       &actor.UserID,
		Metadata:    map[string]any{"receipt_number": r.ReceiptNumber},
	})

	now := time.Now().UTC()
	log := model.EmailLog{
		Status:            string(res.Status),
		Provider:          res.Provider,
		ProviderMessageID: res.ProviderMessageID,
		Error:             res.ErrorMessage,
		To:                s.codec.DecryptString(patient.Email),
		SentAt:            &now,
	}

	set := bson.M{"email_log": log, "updatedAt": now}
	if res.Status == email.StatusSent || res.Status == email.StatusQueued {
		set["status"] = model.ReceiptSent
	}
	if _, err := s.col().UpdateOne(ctx, bson.M{"receipt_number": r.ReceiptNumber}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "receipt.send", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"receipt_number": r.ReceiptNumber, "status": string(res.Status)},
	})

	var updated model.Receipt
	if err := s.col().FindOne(ctx, bson.M{"receipt_number": r.ReceiptNumber}).Decode(&updated); err != nil {
		return nil, err
	}
	v := toView(&updated)
	return &v, nil
}

func (s *receiptService) PDF(ctx context.Context, actor access.Actor, number string) ([]byte, string, error) {
	r, err := s.scoped(ctx, actor, bson.M{"receipt_number": number})
	if err != nil {
		return nil, "", err
	}

	if r.PDFPath != "" {
		if data, rerr := s.renderer.ReadStored(r.PDFPath); rerr == nil {
			return data, r.ReceiptNumber + ".pdf", nil
		}
	}

	html, err := s.documentHTML(ctx, r)
	if err != nil {
		return nil, "", err
	}
	data, err := s.renderer.Render(ctx, html)
	if err != nil {
		return nil, "", err
	}
	return data, r.ReceiptNumber + ".pdf", nil
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func (s *receiptService) documentHTML(ctx context.Context, r *model.Receipt) (string, error) {
	patient, err := s.loadPatient(ctx, r.PatientID)
	if err != nil {
		return "", err
	}

	branding := s.mail.Branding(ctx)
	name := s.codec.DecryptString(patient.FirstName) + " " + s.codec.DecryptString(patient.Surname)

	var lines []string
	if branding.Phone != "" {
		lines = append(lines, branding.Phone)
	}
	if branding.Email != "" {
		lines = append(lines, branding.Email)
	}

	return renderHTML(documentData{
		ClinicName:    branding.ClinicName,
		ClinicLines:   lines,
		PatientName:   name,
		Number:        r.ReceiptNumber,
		InvoiceNumber: r.InvoiceNumber,
		Date:          r.ReceiptDate,
		Currency:      r.Currency,
		Amount:        r.AmountPaid,
		Method:        r.Method,
	}), nil
}

func (s *receiptService) renderAndPersist(ctx context.Context, r *model.Receipt) {
	html, err := s.documentHTML(ctx, r)
	if err != nil {
		return
	}
	r.HTMLSnapshot = html

	set := bson.M{"html_snapshot": html}
	if doc, err := s.renderer.RenderAndStore(ctx, html, r.ReceiptNumber); err == nil {
		now := time.Now().UTC()
		r.PDFPath = doc.Path
		r.PDFURL = doc.URL
		r.PDFGeneratedAt = &now
		set["pdf_path"] = doc.Path
		set["pdf_url"] = doc.URL
		set["pdf_generated_at"] = now
	}
	_, _ = s.col().UpdateOne(ctx, bson.M{"receipt_number": r.ReceiptNumber}, bson.M{"$set": set})
}

func (s *receiptService) loadPatient(ctx context.Context, patientID int64) (*model.Patient, error) {
	var p model.Patient
	err := s.db.Collection(model.ColPatients).FindOne(ctx, bson.M{"patient_id": patientID}).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func toView(r *model.Receipt) View {
	return View{
		ID:            r.ID.Hex(),
		ReceiptID:     r.ReceiptID,
		ReceiptNumber: r.ReceiptNumber,
		PaymentID:     r.PaymentID,
		InvoiceID:     r.InvoiceID,
		InvoiceNumber: r.InvoiceNumber,
		PatientID:     r.PatientID,
		AmountPaid:    r.AmountPaid,
		Currency:      r.Currency,
		Method:        r.Method,
		Status:        r.Status,
		ReceiptDate:   r.ReceiptDate,
		PDFURL:        r.PDFURL,
		EmailLog:      r.EmailLog,
		CreatedAt:     r.CreatedAt,
	}
}
