package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profit/loss entry types and sources.
const (
	PLIncome  = "income"
	PLExpense = "expense"

	PLSourceManual  = "manual"
	PLSourceInvoice = "invoice"
)

// ProfitLossEntry is one line in the clinic's profit-and-loss ledger. Paid
// invoices feed income rows automatically; expenses are entered manually.
type ProfitLossEntry struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	EntryID       int64               `bson:"entry_id,omitempty"`
	Date          time.Time           `bson:"date"`
	Type          string              `bson:"type"`
	Category      string              `bson:"category,omitempty"`
	Description   string              `bson:"description,omitempty"`
	Amount        float64             `bson:"amount"`
	Source        string              `bson:"source,omitempty"`
	InvoiceNumber string              `bson:"invoice_number,omitempty"`
	InvoiceRef    *primitive.ObjectID `bson:"invoice_id,omitempty"`
	CreatedBy     primitive.ObjectID  `bson:"createdBy"`
	UpdatedBy     primitive.ObjectID  `bson:"updatedBy"`
	CreatedAt     time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt     time.Time           `bson:"updatedAt,omitempty"`
}
