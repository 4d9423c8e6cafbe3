package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilitySlot is one weekly recurring window. day_of_week uses 0=Sunday.
type AvailabilitySlot struct {
	DayOfWeek int    `bson:"day_of_week"`
	StartTime string `bson:"start_time"`
	EndTime   string `bson:"end_time"`
	Location  string `bson:"location,omitempty"`
}

// Availability is a therapist's weekly working pattern, effective over a date
// range. Ranges may overlap; the most recent effective_from wins.
type Availability struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Therapist           primitive.ObjectID `bson:"therapist"`
	TherapistEmployeeID int64              `bson:"therapist_employee_id"`
	Slots               []AvailabilitySlot `bson:"slots,omitempty"`
	EffectiveFrom       time.Time          `bson:"effective_from"`
	EffectiveTo         *time.Time         `bson:"effective_to,omitempty"`
	IsDefault           bool               `bson:"is_default"`
	Notes               string             `bson:"notes,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt           time.Time          `bson:"updatedAt,omitempty"`
}
