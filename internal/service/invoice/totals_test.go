package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		lines        []LineInput
		discount     float64
		wantSubtotal float64
		wantTotal    float64
	}{
		{
			name:         "single line",
			lines:        []LineInput{{Description: "Physiotherapy session", Quantity: 1, UnitPrice: 65}},
			wantSubtotal: 65,
			wantTotal:    65,
		},
		{
			name:         "zero quantity defaults to one",
			lines:        []LineInput{{Description: "Initial assessment", UnitPrice: 80}},
			wantSubtotal: 80,
			wantTotal:    80,
		},
		{
			name: "line discount clamps to base",
			lines: []LineInput{
				{Description: "Follow-up", Quantity: 1, UnitPrice: 50, DiscountAmount: 90},
			},
			wantSubtotal: 0,
			wantTotal:    0,
		},
		{
			name: "negative line discount ignored",
			lines: []LineInput{
				{Description: "Follow-up", Quantity: 2, UnitPrice: 40, DiscountAmount: -10},
			},
			wantSubtotal: 80,
			wantTotal:    80,
		},
		{
			name: "invoice discount reduces total",
			lines: []LineInput{
				{Description: "Session", Quantity: 3, UnitPrice: 60},
			},
			discount:     30,
			wantSubtotal: 180,
			wantTotal:    150,
		},
		{
			name: "invoice discount never below zero",
			lines: []LineInput{
				{Description: "Session", Quantity: 1, UnitPrice: 20},
			},
			discount:     100,
			wantSubtotal: 20,
			wantTotal:    0,
		},
		{
			name: "mixed lines",
			lines: []LineInput{
				{Description: "Session", Quantity: 2, UnitPrice: 65, DiscountAmount: 10},
				{Description: "Resistance bands", Quantity: 1, UnitPrice: 12},
			},
			wantSubtotal: 132,
			wantTotal:    132,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.lines, tt.discount)
			assert.Equal(t, tt.wantSubtotal, got.Subtotal)
			assert.Equal(t, tt.wantTotal, got.TotalDue)
			assert.Len(t, got.Lines, len(tt.lines))
		})
	}
}

func TestCalculateTotalsLineNet(t *testing.T) {
	got := CalculateTotals([]LineInput{
		{Description: "Session", Quantity: 2, UnitPrice: 65, DiscountAmount: 10},
	}, 0)

	line := got.Lines[0]
	assert.Equal(t, float64(2), line.Quantity)
	assert.Equal(t, float64(10), line.DiscountAmount)
	assert.Equal(t, float64(120), line.Total)
	assert.Equal(t, float64(10), got.LineDiscountTotal)
}

func TestBalance(t *testing.T) {
	assert.Equal(t, float64(40), Balance(100, 60))
	assert.Equal(t, float64(0), Balance(100, 100))
	assert.Equal(t, float64(0), Balance(100, 150), "overpayment clamps to zero")
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		paid    float64
		balance float64
		want    string
	}{
		{"void is terminal", model.InvoiceVoid, 100, 0, model.InvoiceVoid},
		{"settled goes paid", model.InvoiceSent, 100, 0, model.InvoicePaid},
		{"partial payment", model.InvoiceSent, 40, 60, model.InvoicePartiallyPaid},
		{"draft stays draft", model.InvoiceDraft, 0, 100, model.InvoiceDraft},
		{"empty treated as draft", "", 0, 100, model.InvoiceDraft},
		{"sent stays sent", model.InvoiceSent, 0, 100, model.InvoiceSent},
		{"payments removed falls back to sent", model.InvoicePartiallyPaid, 0, 100, model.InvoiceSent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.current, tt.paid, tt.balance))
		})
	}
}
