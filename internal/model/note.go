package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note types.
const (
	NoteTreatment      = "treatment"
	NoteCommunication  = "communication"
	NoteAdministrative = "administrative"
)

// Note visibility levels.
const (
	VisibilityPrivate = "private"
	VisibilityTeam    = "team"
	VisibilityAdmin   = "admin"
)

// NoteAttachment is file metadata attached to a note.
type NoteAttachment struct {
	FileName string `bson:"fileName,omitempty"`
	FileURL  string `bson:"fileUrl,omitempty"`
}

// Note is a standalone patient note. The text is stored encrypted.
type Note struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	PatientID     int64               `bson:"patient_id"`
	AppointmentID *int64              `bson:"appointment_id,omitempty"`
	EmployeeID    *int64              `bson:"employeeID,omitempty"`
	Author        *primitive.ObjectID `bson:"author,omitempty"`

	Type        string           `bson:"type,omitempty"`
	Note        string           `bson:"note"`
	Visibility  string           `bson:"visibility,omitempty"`
	Date        *time.Time       `bson:"date,omitempty"`
	Attachments []NoteAttachment `bson:"attachments,omitempty"`

	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty"`
	UpdatedBy *primitive.ObjectID `bson:"updatedBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt time.Time           `bson:"updatedAt,omitempty"`
}
