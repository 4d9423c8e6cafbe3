package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Receipt statuses.
const (
	ReceiptDraft = "draft"
	ReceiptSent  = "sent"
)

// Receipt acknowledges one payment. Exactly one receipt exists per payment,
// enforced by a unique index on payment_id.
type Receipt struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ReceiptID     int64              `bson:"receipt_id"`
	ReceiptNumber string             `bson:"receipt_number"`
	PaymentID     int64              `bson:"payment_id"`
	InvoiceID     *int64             `bson:"invoice_id,omitempty"`
	InvoiceNumber string             `bson:"invoice_number,omitempty"`
	PatientID     int64              `bson:"patient_id"`

	AmountPaid  float64    `bson:"amount_paid"`
	Currency    string     `bson:"currency,omitempty"`
	Method      string     `bson:"method,omitempty"`
	Status      string     `bson:"status"`
	ReceiptDate *time.Time `bson:"receipt_date,omitempty"`

	PDFPath        string     `bson:"pdf_path,omitempty"`
	PDFURL         string     `bson:"pdf_url,omitempty"`
	PDFGeneratedAt *time.Time `bson:"pdf_generated_at,omitempty"`
	HTMLSnapshot   string     `bson:"html_snapshot,omitempty"`
	EmailLog       *EmailLog  `bson:"email_log,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt time.Time           `bson:"updatedAt,omitempty"`
}
