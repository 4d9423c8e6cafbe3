package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentTemplate is a reusable body for GP letters or treatment notes.
// Both catalogues share the shape and live in separate collections.
type DocumentTemplate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Body      string             `bson:"body"`
	Tags      []string           `bson:"tags,omitempty"`
	Archived  bool               `bson:"archived"`
	CreatedBy primitive.ObjectID `bson:"createdBy"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy"`
	CreatedAt time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty"`
}
