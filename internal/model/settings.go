package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branding is the clinic identity block rendered into documents and emails.
type Branding struct {
	ClinicName string `bson:"clinic_name,omitempty"`
	Address    string `bson:"address,omitempty"`
	Phone      string `bson:"phone,omitempty"`
	Email      string `bson:"email,omitempty"`
	Website    string `bson:"website,omitempty"`
	LogoURL    string `bson:"logo_url,omitempty"`
}

// EmailTemplate is a clinic-configured override of a built-in template.
type EmailTemplate struct {
	TemplateName string `bson:"template_name"`
	Subject      string `bson:"subject"`
	Body         string `bson:"body"`
}

// NotificationPreferences controls which automated emails fire.
type NotificationPreferences struct {
	BookingConfirmation bool `bson:"booking_confirmation"`
	InvoiceDelivery     bool `bson:"invoice_delivery"`
	ReceiptDelivery     bool `bson:"receipt_delivery"`
}

// ClinicSettings is a singleton document.
type ClinicSettings struct {
	ID                      primitive.ObjectID       `bson:"_id,omitempty"`
	Branding                *Branding                `bson:"branding,omitempty"`
	InvoicePrefix           string                   `bson:"invoice_prefix,omitempty"`
	EmailProvider           string                   `bson:"email_provider,omitempty"`
	EmailTemplates          []EmailTemplate          `bson:"email_templates,omitempty"`
	PaymentInstructions     string                   `bson:"payment_instructions,omitempty"`
	NotificationPreferences *NotificationPreferences `bson:"notification_preferences,omitempty"`
	UpdatedBy               *primitive.ObjectID      `bson:"updatedBy,omitempty"`
	CreatedAt               time.Time                `bson:"createdAt,omitempty"`
	UpdatedAt               time.Time                `bson:"updatedAt,omitempty"`
}

// DefaultInvoicePrefix applies when settings carry none.
const DefaultInvoicePrefix = "INV"

// Prefix returns the configured invoice prefix or the default.
func (s *ClinicSettings) Prefix() string {
	if s == nil || s.InvoicePrefix == "" {
		return DefaultInvoicePrefix
	}
	return s.InvoicePrefix
}

// Template returns the override named name, or nil.
func (s *ClinicSettings) Template(name string) *EmailTemplate {
	if s == nil {
		return nil
	}
	for i := range s.EmailTemplates {
		if s.EmailTemplates[i].TemplateName == name {
			return &s.EmailTemplates[i]
		}
	}
	return nil
}
