package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is an immutable record of a state-changing or security-relevant
// event. Rows are append-only.
type AuditLog struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Event     string              `bson:"event"`
	User      *primitive.ObjectID `bson:"user,omitempty"`
	UserRole  string              `bson:"user_role,omitempty"`
	Actor     *primitive.ObjectID `bson:"actor,omitempty"`
	ActorRole string              `bson:"actor_role,omitempty"`
	IPAddress string              `bson:"ip_address,omitempty"`
	Metadata  map[string]any      `bson:"metadata,omitempty"`
	Success   bool                `bson:"success"`
	CreatedAt time.Time           `bson:"createdAt"`
}
