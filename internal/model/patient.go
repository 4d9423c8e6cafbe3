package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Patient statuses. "inactive" appears in legacy rows and is normalized to
// archived on write.
const (
	PatientStatusActive   = "active"
	PatientStatusArchived = "archived"
)

// Billing modes.
const (
	BillingIndividual = "individual"
	BillingMonthly    = "monthly"
)

// Address is the structured patient address block. The whole block is nulled
// when every field is cleared on edit.
type Address struct {
	Line1    string `bson:"line1,omitempty"`
	Line2    string `bson:"line2,omitempty"`
	City     string `bson:"city,omitempty"`
	County   string `bson:"county,omitempty"`
	Postcode string `bson:"postcode,omitempty"`
	Country  string `bson:"country,omitempty"`
}

type EmergencyContact struct {
	Name     string `bson:"name,omitempty"`
	Phone    string `bson:"phone,omitempty"`
	Relation string `bson:"relation,omitempty"`
}

type Insurance struct {
	Provider     string `bson:"provider,omitempty"`
	PolicyNumber string `bson:"policy_number,omitempty"`
	Notes        string `bson:"notes,omitempty"`
}

// Patient is a clinic client. Name fields are stored encrypted.
type Patient struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	PatientID      int64              `bson:"patient_id"`
	FirstName      string             `bson:"first_name"`
	Surname        string             `bson:"surname"`
	PreferredName  string             `bson:"preferred_name,omitempty"`
	DateOfBirth    *string            `bson:"date_of_birth,omitempty"`
	Gender         string             `bson:"gender,omitempty"`
	Email          string             `bson:"email"`
	Phone          string             `bson:"phone"`
	SecondaryPhone string             `bson:"secondary_phone,omitempty"`

	PrimaryContactName  string `bson:"primary_contact_name,omitempty"`
	PrimaryContactEmail string `bson:"primary_contact_email,omitempty"`
	PrimaryContactPhone string `bson:"primary_contact_phone,omitempty"`

	Address          *Address          `bson:"address,omitempty"`
	EmergencyContact *EmergencyContact `bson:"emergency_contact,omitempty"`
	Insurance        *Insurance        `bson:"insurance,omitempty"`
	MedicalAlerts    []string          `bson:"medical_alerts,omitempty"`

	PrimaryTherapistID *int64              `bson:"primary_therapist_id,omitempty"`
	PrimaryTherapist   *primitive.ObjectID `bson:"primaryTherapist,omitempty"`

	Status          string     `bson:"status"`
	Tags            []string   `bson:"tags,omitempty"`
	BillingMode     string     `bson:"billing_mode"`
	EmailActive     bool       `bson:"email_active"`
	ConsentSignedAt *time.Time `bson:"consent_signed_at,omitempty"`
	NotesSummary    string     `bson:"notes_summary,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty"`
}

// Archived reports whether the patient is hidden from default listings.
func (p *Patient) Archived() bool { return p.Status == PatientStatusArchived }
