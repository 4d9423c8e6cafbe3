package invoice

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

// DocumentData is the decrypted context an invoice document renders from.
type DocumentData struct {
	ClinicName   string
	ClinicLines  []string
	PatientName  string
	ContactEmail string

	Number    string
	IssueDate *time.Time
	DueDate   *time.Time
	Currency  string

	Lines           []model.LineItem
	Subtotal        float64
	InvoiceDiscount float64
	TotalDue        float64
	TotalPaid       float64
	BalanceDue      float64

	PaymentInstructions string
	Notes               string
}

func money(currency string, v float64) string {
	symbol := "£"
	if currency != "" && currency != model.DefaultCurrency {
		symbol = currency + " "
	}
	return fmt.Sprintf("%s%.2f", symbol, v)
}

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

// RenderHTML produces the printable invoice document that both the PDF
// renderer and the stored html_snapshot use.
func RenderHTML(d DocumentData) string {
	clinic := d.ClinicName
	if clinic == "" {
		clinic = "Bridges Physiotherapy"
	}

	var rows strings.Builder
	for _, l := range d.Lines {
		date := ""
		if l.ServiceDate != nil {
			date = l.ServiceDate.Format("02 Jan 2006")
		}
		rows.WriteString(fmt.Sprintf(`<tr>
<td>%s</td><td>%s</td><td style="text-align:right">%.0f</td><td style="text-align:right">%s</td><td style="text-align:right">%s</td><td style="text-align:right">%s</td>
</tr>`,
			html.EscapeString(l.Description),
			date,
			l.Quantity,
			money(d.Currency, l.UnitPrice),
			money(d.Currency, l.DiscountAmount),
			money(d.Currency, l.Total),
		))
	}

	clinicLines := ""
	for _, line := range d.ClinicLines {
		clinicLines += html.EscapeString(line) + "<br>"
	}

	notes := ""
	if d.Notes != "" {
		notes = fmt.Sprintf(`<p class="muted">%s</p>`, html.EscapeString(d.Notes))
	}
	instructions := ""
	if d.PaymentInstructions != "" {
		instructions = fmt.Sprintf(`<h3>Payment</h3><p>%s</p>`, html.EscapeString(d.PaymentInstructions))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #111; margin: 40px; }
h1 { color: #0f766e; margin-bottom: 0; }
table { width: 100%%; border-collapse: collapse; margin-top: 24px; }
th { text-align: left; border-bottom: 2px solid #0f766e; padding: 6px 4px; }
td { border-bottom: 1px solid #e5e7eb; padding: 6px 4px; }
.summary td { border: none; padding: 3px 4px; }
.muted { color: #6b7280; font-size: 13px; }
.total { font-size: 16px; font-weight: bold; }
</style>
</head>
<body>
<h1>%s</h1>
<p class="muted">%s</p>
<h2>Invoice %s</h2>
<p>Billed to: <strong>%s</strong><br>%s</p>
<p class="muted">Issue date: %s &nbsp; Due date: %s</p>
<table>
<thead><tr><th>Description</th><th>Date</th><th style="text-align:right">Qty</th><th style="text-align:right">Unit</th><th style="text-align:right">Discount</th><th style="text-align:right">Total</th></tr></thead>
<tbody>%s</tbody>
</table>
<table class="summary" style="width: 40%%; margin-left: auto;">
<tr><td>Subtotal</td><td style="text-align:right">%s</td></tr>
<tr><td>Invoice discount</td><td style="text-align:right">%s</td></tr>
<tr><td>Paid</td><td style="text-align:right">%s</td></tr>
<tr class="total"><td>Balance due</td><td style="text-align:right">%s</td></tr>
</table>
%s
%s
</body>
</html>`,
		html.EscapeString(clinic),
		clinicLines,
		html.EscapeString(d.Number),
		html.EscapeString(d.PatientName),
		html.EscapeString(d.ContactEmail),
		fmtDate(d.IssueDate),
		fmtDate(d.DueDate),
		rows.String(),
		money(d.Currency, d.Subtotal),
		money(d.Currency, d.InvoiceDiscount),
		money(d.Currency, d.TotalPaid),
		money(d.Currency, d.BalanceDue),
		instructions,
		notes,
	)
}
