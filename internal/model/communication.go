package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Communication types.
const (
	CommEmail    = "email"
	CommSMS      = "sms"
	CommPhone    = "phone"
	CommInPerson = "in_person"
	CommNote     = "note"
)

// Delivery statuses for outbound communications.
const (
	DeliveryPending    = "pending"
	DeliverySent       = "sent"
	DeliveryDelivered  = "delivered"
	DeliveryFailed     = "failed"
	DeliverySuppressed = "suppressed"
)

// Communication is one logged contact with a patient. Subject and content are
// stored encrypted.
type Communication struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	CommunicationID int64               `bson:"communication_id"`
	PatientID       int64               `bson:"patient_id"`
	Patient         *primitive.ObjectID `bson:"patient,omitempty"`
	EmployeeID      *int64              `bson:"employeeID,omitempty"`
	User            *primitive.ObjectID `bson:"user,omitempty"`

	Date           *time.Time     `bson:"date,omitempty"`
	Type           string         `bson:"type"`
	Subject        string         `bson:"subject,omitempty"`
	Content        string         `bson:"content"`
	DeliveryStatus string         `bson:"delivery_status,omitempty"`
	Metadata       map[string]any `bson:"metadata,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty"`
}
