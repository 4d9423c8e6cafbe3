package invoice

import "github.com/bridgesphysio/bridges_backend/internal/model"

// LineInput is one line item before totals are derived.
type LineInput struct {
	Description    string
	Quantity       float64
	UnitPrice      float64
	DiscountAmount float64
	AppointmentID  *int64
	ServiceDate    string
	Notes          string
}

// TotalsResult is the outcome of the pure totals calculation.
type TotalsResult struct {
	Lines             []model.LineItem
	Subtotal          float64
	LineDiscountTotal float64
	InvoiceDiscount   float64
	TotalDue          float64
}

// CalculateTotals derives line nets and the invoice total. Per-line discounts
// clamp to [0, base]; the invoice-level discount clamps at zero; the total
// never goes negative.
func CalculateTotals(lines []LineInput, invoiceDiscount float64) TotalsResult {
	out := TotalsResult{Lines: make([]model.LineItem, 0, len(lines))}

	for _, l := range lines {
		qty := l.Quantity
		if qty == 0 {
			qty = 1
		}
		base := qty * l.UnitPrice

		disc := l.DiscountAmount
		if disc < 0 {
			disc = 0
		}
		if disc > base {
			disc = base
		}

		net := base - disc
		if net < 0 {
			net = 0
		}

		out.Lines = append(out.Lines, model.LineItem{
			Description:    l.Description,
			Quantity:       qty,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: disc,
			Total:          net,
			AppointmentID:  l.AppointmentID,
			Notes:          l.Notes,
		})
		out.Subtotal += net
		out.LineDiscountTotal += disc
	}

	if invoiceDiscount < 0 {
		invoiceDiscount = 0
	}
	out.InvoiceDiscount = invoiceDiscount

	out.TotalDue = out.Subtotal - invoiceDiscount
	if out.TotalDue < 0 {
		out.TotalDue = 0
	}
	return out
}

// Balance computes the outstanding amount, clamped at zero.
func Balance(totalDue, totalPaid float64) float64 {
	b := totalDue - totalPaid
	if b < 0 {
		return 0
	}
	return b
}

// DeriveStatus applies the reconciliation status rules. Void is terminal and
// draft is only promoted by an explicit send.
func DeriveStatus(current string, totalPaid, balanceDue float64) string {
	if current == model.InvoiceVoid {
		return current
	}
	switch {
	case balanceDue <= 0:
		return model.InvoicePaid
	case totalPaid > 0:
		return model.InvoicePartiallyPaid
	case current == model.InvoiceDraft || current == "":
		return model.InvoiceDraft
	default:
		return model.InvoiceSent
	}
}
