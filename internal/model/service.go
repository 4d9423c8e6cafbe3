package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service is one entry in the treatment catalogue.
type Service struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	TreatmentID          int64              `bson:"treatment_id"`
	TreatmentDescription string             `bson:"treatment_description"`
	Price                float64            `bson:"price"`
	DurationMinutes      int                `bson:"duration_minutes,omitempty"`
	Active               bool               `bson:"active"`
	Notes                string             `bson:"notes,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt            time.Time          `bson:"updatedAt,omitempty"`
}
