package receipt

import (
	"fmt"
	"html"
	"time"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

// documentData is the decrypted context a receipt document renders from.
type documentData struct {
	ClinicName    string
	ClinicLines   []string
	PatientName   string
	Number        string
	InvoiceNumber string
	Date          *time.Time
	Currency      string
	Amount        float64
	Method        string
}

func money(currency string, v float64) string {
	symbol := "£"
	if currency != "" && currency != model.DefaultCurrency {
		symbol = currency + " "
	}
	return fmt.Sprintf("%s%.2f", symbol, v)
}

func renderHTML(d documentData) string {
	clinic := d.ClinicName
	if clinic == "" {
		clinic = "Bridges Physiotherapy"
	}

	date := ""
	if d.Date != nil {
		date = d.Date.Format("02 Jan 2006")
	}

	clinicLines := ""
	for _, line := range d.ClinicLines {
		clinicLines += html.EscapeString(line) + "<br>"
	}

	against := ""
	if d.InvoiceNumber != "" {
		against = fmt.Sprintf(`<tr><td>Invoice</td><td style="text-align:right">%s</td></tr>`, html.EscapeString(d.InvoiceNumber))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #111; margin: 40px; }
h1 { color: #0f766e; margin-bottom: 0; }
table { width: 60%%; border-collapse: collapse; margin-top: 24px; }
td { border-bottom: 1px solid #e5e7eb; padding: 8px 4px; }
.muted { color: #6b7280; font-size: 13px; }
.amount { font-size: 18px; font-weight: bold; }
</style>
</head>
<body>
<h1>%s</h1>
<p class="muted">%s</p>
<h2>Receipt %s</h2>
<p>Received from: <strong>%s</strong></p>
<table>
<tr><td>Date</td><td style="text-align:right">%s</td></tr>
%s
<tr><td>Method</td><td style="text-align:right">%s</td></tr>
<tr class="amount"><td>Amount paid</td><td style="text-align:right">%s</td></tr>
</table>
<p class="muted">Thank you for your payment.</p>
</body>
</html>`,
		html.EscapeString(clinic),
		clinicLines,
		html.EscapeString(d.Number),
		html.EscapeString(d.PatientName),
		date,
		against,
		html.EscapeString(d.Method),
		money(d.Currency, d.Amount),
	)
}
