package email

import (
	"fmt"
	"strings"
)

// TemplateName identifies a transactional template. ClinicSettings may carry
// a subject/body override keyed by this name.
type TemplateName string

const (
	TemplateBookingConfirmation TemplateName = "booking_confirmation"
	TemplateInvoiceDelivery     TemplateName = "invoice_delivery"
	TemplateCancellationFee     TemplateName = "cancellation_fee"
	TemplateReceiptDelivery     TemplateName = "receipt_delivery"
	TemplatePasswordReset       TemplateName = "password_reset"
	TemplateTestEmail           TemplateName = "test_email"
)

// Override is a clinic-configured subject/body replacing a built-in template.
// Placeholders such as {{patientName}} are substituted from the builder data.
type Override struct {
	Subject string
	Body    string
}

// Branding carries the clinic identity stamped onto every outbound message.
type Branding struct {
	ClinicName          string
	Phone               string
	Email               string
	PaymentInstructions string
}

func (b Branding) name() string {
	if b.ClinicName == "" {
		return "Bridges Physiotherapy"
	}
	return b.ClinicName
}

// ApplyOverride substitutes placeholders in an override template.
func ApplyOverride(o Override, vars map[string]string) (subject, body string) {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(o.Subject), r.Replace(o.Body)
}

// BookingEmailData feeds the booking-confirmation template.
type BookingEmailData struct {
	PatientName string
	Email       string
	Date        string
	Time        string
	Location    string
	Treatment   string
	Therapist   string
	Branding    Branding
}

// BuildBookingConfirmationEmail creates the appointment confirmation message.
func BuildBookingConfirmationEmail(data BookingEmailData, override *Override) Message {
	clinic := data.Branding.name()

	name := data.PatientName
	if name == "" {
		name = "there"
	}

	if override != nil {
		subject, body := ApplyOverride(*override, map[string]string{
			"patientName": name,
			"date":        data.Date,
			"time":        data.Time,
			"location":    data.Location,
			"treatment":   data.Treatment,
			"therapist":   data.Therapist,
			"clinicName":  clinic,
		})
		return Message{To: []string{data.Email}, Subject: subject, HTMLBody: body}
	}

	subject := fmt.Sprintf("Appointment confirmed - %s", data.Date)

	textBody := fmt.Sprintf(`Hi %s,

Your appointment with %s is confirmed.

Date: %s
Time: %s
Location: %s
Treatment: %s
Therapist: %s

If you need to reschedule, please contact us as soon as possible.

Thanks,
%s`,
		name, clinic, data.Date, data.Time, data.Location, data.Treatment, data.Therapist, clinic)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>Your appointment with %s is confirmed.</p>
    <table style="border-collapse: collapse; margin: 20px 0;">
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Date</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Time</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Location</td><td style="padding: 4px 0;">%s</td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Treatment</td><td style="padding: 4px 0;">%s</td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Therapist</td><td style="padding: 4px 0;">%s</td></tr>
    </table>
    <p>If you need to reschedule, please contact us as soon as possible.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>%s</p>
</body>
</html>`,
		name, clinic, data.Date, data.Time, data.Location, data.Treatment, data.Therapist, clinic)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// InvoiceEmailData feeds the invoice-delivery and cancellation-fee templates.
type InvoiceEmailData struct {
	PatientName     string
	Email           string
	InvoiceNumber   string
	TotalDue        string
	DueDate         string
	CancellationFee bool
	Branding        Branding
}

// BuildInvoiceEmail creates the invoice-delivery message. The PDF is attached
// by the caller.
func BuildInvoiceEmail(data InvoiceEmailData, override *Override) Message {
	clinic := data.Branding.name()

	name := data.PatientName
	if name == "" {
		name = "there"
	}

	if override != nil {
		subject, body := ApplyOverride(*override, map[string]string{
			"patientName":   name,
			"invoiceNumber": data.InvoiceNumber,
			"totalDue":      data.TotalDue,
			"dueDate":       data.DueDate,
			"clinicName":    clinic,
		})
		return Message{To: []string{data.Email}, Subject: subject, HTMLBody: body}
	}

	subject := fmt.Sprintf("Invoice %s from %s", data.InvoiceNumber, clinic)
	intro := "Please find your invoice attached."
	if data.CancellationFee {
		subject = fmt.Sprintf("Cancellation fee - invoice %s from %s", data.InvoiceNumber, clinic)
		intro = "A cancellation fee has been applied for your recent appointment. Please find the invoice attached."
	}

	pay := data.Branding.PaymentInstructions
	if pay == "" {
		pay = "Payment details are included on the attached invoice."
	}

	textBody := fmt.Sprintf(`Hi %s,

%s

Invoice number: %s
Amount due: %s
Due date: %s

%s

Thanks,
%s`,
		name, intro, data.InvoiceNumber, data.TotalDue, data.DueDate, pay, clinic)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>%s</p>
    <table style="border-collapse: collapse; margin: 20px 0;">
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Invoice number</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Amount due</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Due date</td><td style="padding: 4px 0;">%s</td></tr>
    </table>
    <p>%s</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>%s</p>
</body>
</html>`,
		name, intro, data.InvoiceNumber, data.TotalDue, data.DueDate, pay, clinic)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// ReceiptEmailData feeds the receipt-delivery template.
type ReceiptEmailData struct {
	PatientName   string
	Email         string
	ReceiptNumber string
	AmountPaid    string
	PaymentDate   string
	Method        string
	Branding      Branding
}

// BuildReceiptEmail creates the receipt-delivery message.
func BuildReceiptEmail(data ReceiptEmailData, override *Override) Message {
	clinic := data.Branding.name()

	name := data.PatientName
	if name == "" {
		name = "there"
	}

	if override != nil {
		subject, body := ApplyOverride(*override, map[string]string{
			"patientName":   name,
			"receiptNumber": data.ReceiptNumber,
			"amountPaid":    data.AmountPaid,
			"paymentDate":   data.PaymentDate,
			"method":        data.Method,
			"clinicName":    clinic,
		})
		return Message{To: []string{data.Email}, Subject: subject, HTMLBody: body}
	}

	subject := fmt.Sprintf("Receipt %s from %s", data.ReceiptNumber, clinic)

	textBody := fmt.Sprintf(`Hi %s,

Thank you for your payment. Your receipt is attached.

Receipt number: %s
Amount paid: %s
Payment date: %s
Method: %s

Thanks,
%s`,
		name, data.ReceiptNumber, data.AmountPaid, data.PaymentDate, data.Method, clinic)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>Thank you for your payment. Your receipt is attached.</p>
    <table style="border-collapse: collapse; margin: 20px 0;">
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Receipt number</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Amount paid</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Payment date</td><td style="padding: 4px 0;">%s</td></tr>
        <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Method</td><td style="padding: 4px 0;">%s</td></tr>
    </table>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>%s</p>
</body>
</html>`,
		name, data.ReceiptNumber, data.AmountPaid, data.PaymentDate, data.Method, clinic)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// ResetEmailData feeds the password-reset template.
type ResetEmailData struct {
	Name     string
	Email    string
	ResetURL string
	Branding Branding
}

// BuildPasswordResetEmail creates the password-reset message. The URL carries
// the raw token; only its hash is stored.
func BuildPasswordResetEmail(data ResetEmailData) Message {
	clinic := data.Branding.name()

	name := data.Name
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Reset your %s password", clinic)

	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset your password. Use the link below within
the next hour:

%s

If you did not request this, you can safely ignore this email.

Thanks,
%s`,
		name, data.ResetURL, clinic)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>We received a request to reset your password. Use the button below within the next hour:</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #0f766e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Reset Password</a>
    </p>
    <p>If you did not request this, you can safely ignore this email.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>%s</p>
</body>
</html>`,
		name, data.ResetURL, clinic)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// BuildTestEmail creates the message sent by the settings test-email endpoint.
func BuildTestEmail(to string, branding Branding) Message {
	clinic := branding.name()

	subject := fmt.Sprintf("Test email from %s", clinic)
	textBody := fmt.Sprintf("This is a test email from %s. If you received it, email delivery is working.", clinic)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <p>This is a test email from <strong>%s</strong>. If you received it, email delivery is working.</p>
</body>
</html>`, clinic)

	return Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
