package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment statuses.
const (
	AppointmentScheduled            = "scheduled"
	AppointmentCompleted            = "completed"
	AppointmentCancelled            = "cancelled"
	AppointmentCancelledSameDay     = "cancelled_same_day"
	AppointmentCancelledByPatient   = "cancelled_by_patient"
	AppointmentCancelledByTherapist = "cancelled_by_therapist"
	AppointmentOther                = "other"
)

// Completion statuses, finer grained than the top-level status.
const (
	CompletionScheduled           = "scheduled"
	CompletionCompleted           = "completed"
	CompletionCompletedManual     = "completed_manual"
	CompletionCancelledSameDay    = "cancelled_same_day"
	CompletionCancelledReschedule = "cancelled_reschedule"
	CompletionOther               = "other"
)

// ClinicalNote is one entry in an appointment's clinical note list. The note
// text is stored encrypted.
type ClinicalNote struct {
	Author    *primitive.ObjectID `bson:"author,omitempty"`
	Note      string              `bson:"note"`
	CreatedAt time.Time           `bson:"createdAt,omitempty"`
}

// Recurrence describes how a series was expanded. Stored on the first
// occurrence for reference; expansion happens at create time.
type Recurrence struct {
	Frequency  string `bson:"frequency"`
	Interval   int    `bson:"interval"`
	Count      int    `bson:"count"`
	DaysOfWeek []int  `bson:"daysOfWeek,omitempty"`
}

// Appointment is a booked treatment session. Contact fields are copied from
// the patient at creation and stored encrypted.
type Appointment struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	AppointmentID int64               `bson:"appointment_id"`
	SeriesID      string              `bson:"series_id,omitempty"`
	PatientID     int64               `bson:"patient_id"`
	Patient       *primitive.ObjectID `bson:"patient,omitempty"`
	EmployeeID    int64               `bson:"employeeID"`
	Therapist     *primitive.ObjectID `bson:"therapist,omitempty"`

	Date            time.Time `bson:"date"`
	DurationMinutes int       `bson:"duration_minutes,omitempty"`
	Location        string    `bson:"location"`
	Room            string    `bson:"room,omitempty"`

	FirstName string `bson:"first_name"`
	Surname   string `bson:"surname"`
	Contact   string `bson:"contact"`

	Completed          bool       `bson:"completed"`
	Status             string     `bson:"status"`
	CompletionStatus   string     `bson:"completion_status,omitempty"`
	CompletionNote     string     `bson:"completion_note,omitempty"`
	CancellationReason string     `bson:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `bson:"cancelled_at,omitempty"`

	TreatmentID          int64   `bson:"treatment_id,omitempty"`
	TreatmentDescription string  `bson:"treatment_description"`
	TreatmentCount       int     `bson:"treatment_count"`
	Price                float64 `bson:"price"`
	BillingMode          string  `bson:"billing_mode"`

	Recurrence     *Recurrence    `bson:"recurrence,omitempty"`
	TreatmentNotes string         `bson:"treatment_notes,omitempty"`
	ClinicalNotes  []ClinicalNote `bson:"clinical_notes,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty"`
	UpdatedBy *primitive.ObjectID `bson:"updatedBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt time.Time           `bson:"updatedAt,omitempty"`
}

// Cancelled reports whether the appointment is in any cancelled state.
func (a *Appointment) Cancelled() bool {
	switch a.Status {
	case AppointmentCancelled, AppointmentCancelledSameDay,
		AppointmentCancelledByPatient, AppointmentCancelledByTherapist:
		return true
	}
	return false
}
