package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBookingConfirmationEmail(t *testing.T) {
	msg := BuildBookingConfirmationEmail(BookingEmailData{
		PatientName: "Jo Bloggs",
		Email:       "jo@example.com",
		Date:        "2026-09-14",
		Time:        "10:30",
		Location:    "Main clinic",
		Treatment:   "Initial assessment",
		Therapist:   "A. Smith",
	}, nil)

	require.Equal(t, []string{"jo@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "2026-09-14")
	assert.Contains(t, msg.TextBody, "Jo Bloggs")
	assert.Contains(t, msg.TextBody, "Main clinic")
	assert.Contains(t, msg.HTMLBody, "Initial assessment")
	assert.Contains(t, msg.HTMLBody, "A. Smith")
}

func TestBuildBookingConfirmationEmailOverride(t *testing.T) {
	override := &Override{
		Subject: "See you on {{date}}, {{patientName}}",
		Body:    "<p>{{treatment}} at {{location}}</p>",
	}
	msg := BuildBookingConfirmationEmail(BookingEmailData{
		PatientName: "Jo",
		Email:       "jo@example.com",
		Date:        "2026-09-14",
		Location:    "Annex",
		Treatment:   "Follow-up",
	}, override)

	assert.Equal(t, "See you on 2026-09-14, Jo", msg.Subject)
	assert.Equal(t, "<p>Follow-up at Annex</p>", msg.HTMLBody)
	assert.Empty(t, msg.TextBody)
}

func TestBuildInvoiceEmail(t *testing.T) {
	base := InvoiceEmailData{
		PatientName:   "Jo",
		Email:         "jo@example.com",
		InvoiceNumber: "INV-000123",
		TotalDue:      "£80.00",
		DueDate:       "2026-09-28",
	}

	t.Run("standard", func(t *testing.T) {
		msg := BuildInvoiceEmail(base, nil)
		assert.Contains(t, msg.Subject, "INV-000123")
		assert.NotContains(t, msg.Subject, "Cancellation")
		assert.Contains(t, msg.TextBody, "£80.00")
	})

	t.Run("cancellation fee", func(t *testing.T) {
		data := base
		data.CancellationFee = true
		msg := BuildInvoiceEmail(data, nil)
		assert.Contains(t, msg.Subject, "Cancellation fee")
		assert.Contains(t, msg.TextBody, "cancellation fee")
	})

	t.Run("payment instructions from branding", func(t *testing.T) {
		data := base
		data.Branding.PaymentInstructions = "Bank transfer to 12-34-56 00112233"
		msg := BuildInvoiceEmail(data, nil)
		assert.Contains(t, msg.TextBody, "12-34-56 00112233")
	})
}

func TestBuildReceiptEmail(t *testing.T) {
	msg := BuildReceiptEmail(ReceiptEmailData{
		PatientName:   "Jo",
		Email:         "jo@example.com",
		ReceiptNumber: "REC-000045",
		AmountPaid:    "£40.00",
		PaymentDate:   "2026-09-01",
		Method:        "card",
	}, nil)

	assert.Contains(t, msg.Subject, "REC-000045")
	assert.Contains(t, msg.TextBody, "£40.00")
	assert.Contains(t, msg.HTMLBody, "card")
}

func TestBuildPasswordResetEmail(t *testing.T) {
	msg := BuildPasswordResetEmail(ResetEmailData{
		Name:     "Jo",
		Email:    "jo@example.com",
		ResetURL: "https://app.example.com/reset?token=abc123",
	})

	assert.Contains(t, msg.TextBody, "https://app.example.com/reset?token=abc123")
	assert.Contains(t, msg.HTMLBody, `href="https://app.example.com/reset?token=abc123"`)
}

func TestBuildTestEmail(t *testing.T) {
	msg := BuildTestEmail("admin@example.com", Branding{ClinicName: "Riverside Physio"})
	assert.Equal(t, []string{"admin@example.com"}, msg.To)
	assert.True(t, strings.Contains(msg.Subject, "Riverside Physio"))
}

func TestBrandingDefaultName(t *testing.T) {
	msg := BuildTestEmail("x@example.com", Branding{})
	assert.Contains(t, msg.Subject, "Bridges Physiotherapy")
}
