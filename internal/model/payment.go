package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses. Reconciliation only counts applied payments.
const (
	PaymentApplied  = "applied"
	PaymentPending  = "pending"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Payment methods.
const (
	MethodCard      = "card"
	MethodCash      = "cash"
	MethodTransfer  = "transfer"
	MethodCheque    = "cheque"
	MethodInsurance = "insurance"
	MethodOther     = "other"
)

// Payment records money received against an invoice. Reference and notes are
// stored encrypted.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	PaymentID     int64              `bson:"payment_id"`
	InvoiceID     *int64             `bson:"invoice_id,omitempty"`
	InvoiceNumber string             `bson:"invoice_number,omitempty"`
	PatientID     int64              `bson:"patient_id"`
	AppointmentID *int64             `bson:"appointment_id,omitempty"`

	TreatmentID          *int64 `bson:"treatment_id,omitempty"`
	TreatmentDescription string `bson:"treatment_description,omitempty"`

	AmountPaid  float64    `bson:"amount_paid"`
	Currency    string     `bson:"currency,omitempty"`
	PaymentDate *time.Time `bson:"payment_date,omitempty"`
	Method      string     `bson:"method"`
	Status      string     `bson:"status"`
	Reference   string     `bson:"reference,omitempty"`
	Notes       string     `bson:"notes,omitempty"`

	RecordedBy *primitive.ObjectID `bson:"recordedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt  time.Time           `bson:"updatedAt,omitempty"`
}

// ValidMethod reports whether m is a recognized payment method.
func ValidMethod(m string) bool {
	switch m {
	case MethodCard, MethodCash, MethodTransfer, MethodCheque, MethodInsurance, MethodOther:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a recognized payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentApplied, PaymentPending, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
