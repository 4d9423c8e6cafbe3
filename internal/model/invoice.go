package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invoice statuses.
const (
	InvoiceDraft         = "draft"
	InvoiceSent          = "sent"
	InvoicePartiallyPaid = "partially_paid"
	InvoicePaid          = "paid"
	InvoiceVoid          = "void"
)

// DefaultCurrency is used when a document carries no explicit currency.
const DefaultCurrency = "GBP"

// LineItem is one billed line on an invoice.
type LineItem struct {
	LineID         string     `bson:"line_id"`
	Description    string     `bson:"description"`
	Quantity       float64    `bson:"quantity"`
	UnitPrice      float64    `bson:"unit_price"`
	DiscountAmount float64    `bson:"discount_amount,omitempty"`
	Total          float64    `bson:"total"`
	AppointmentID  *int64     `bson:"appointment_id,omitempty"`
	ServiceDate    *time.Time `bson:"service_date,omitempty"`
	Notes          string     `bson:"notes,omitempty"`
}

// Discount is the invoice-level discount block. Notes are stored encrypted.
type Discount struct {
	Amount         float64 `bson:"amount"`
	InvoiceAmount  float64 `bson:"invoice_amount"`
	LineItemAmount float64 `bson:"line_item_amount"`
	Notes          string  `bson:"notes,omitempty"`
}

// Totals is the derived money summary persisted alongside the flat fields.
type Totals struct {
	Net      float64 `bson:"net"`
	Discount float64 `bson:"discount"`
	Gross    float64 `bson:"gross"`
	Paid     float64 `bson:"paid"`
	Balance  float64 `bson:"balance"`
}

// EmailLog records the outcome of the most recent delivery attempt for a
// document that gets emailed (invoice, receipt).
type EmailLog struct {
	Status            string     `bson:"status"`
	Provider          string     `bson:"provider,omitempty"`
	ProviderMessageID string     `bson:"provider_message_id,omitempty"`
	Error             string     `bson:"error,omitempty"`
	To                string     `bson:"to,omitempty"`
	SentAt            *time.Time `bson:"sent_at,omitempty"`
}

// Invoice is a bill issued to a patient. Billing contact fields and notes are
// stored encrypted.
type Invoice struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	InvoiceID      int64               `bson:"invoice_id"`
	InvoiceNumber  string              `bson:"invoice_number"`
	PatientID      int64               `bson:"patient_id"`
	ClientID       int64               `bson:"client_id,omitempty"`
	AppointmentID  *int64              `bson:"appointment_id,omitempty"`
	AppointmentIDs []int64             `bson:"appointment_ids,omitempty"`
	Patient        *primitive.ObjectID `bson:"patient,omitempty"`

	BillingContactName  string `bson:"billing_contact_name,omitempty"`
	BillingContactEmail string `bson:"billing_contact_email,omitempty"`
	BillingContactPhone string `bson:"billing_contact_phone,omitempty"`

	Status    string     `bson:"status"`
	LineItems []LineItem `bson:"line_items"`
	Discount  *Discount  `bson:"discount,omitempty"`
	Totals    *Totals    `bson:"totals,omitempty"`

	Subtotal   float64 `bson:"subtotal"`
	TotalDue   float64 `bson:"total_due"`
	TotalPaid  float64 `bson:"total_paid"`
	BalanceDue float64 `bson:"balance_due"`

	IssueDate *time.Time `bson:"issue_date,omitempty"`
	DueDate   *time.Time `bson:"due_date,omitempty"`
	SentAt    *time.Time `bson:"sent_at,omitempty"`
	PaidAt    *time.Time `bson:"paid_at,omitempty"`

	PDFPath        string     `bson:"pdf_path,omitempty"`
	PDFURL         string     `bson:"pdf_url,omitempty"`
	PDFGeneratedAt *time.Time `bson:"pdf_generated_at,omitempty"`
	HTMLSnapshot   string     `bson:"html_snapshot,omitempty"`
	EmailLog       *EmailLog  `bson:"email_log,omitempty"`

	Currency string `bson:"currency,omitempty"`
	Notes    string `bson:"notes,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty"`
	UpdatedBy *primitive.ObjectID `bson:"updatedBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt time.Time           `bson:"updatedAt,omitempty"`
}
