package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken is one link in a rotation chain. A revoked token must never
// mint a successor; replay of a revoked token revokes its descendants.
type RefreshToken struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	User              primitive.ObjectID `bson:"user"`
	TokenID           string             `bson:"tokenId"`
	ExpiresAt         time.Time          `bson:"expiresAt"`
	RevokedAt         *time.Time         `bson:"revokedAt,omitempty"`
	ReplacedByTokenID string             `bson:"replacedByTokenId,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt,omitempty"`
}

// Revoked reports whether the token has been invalidated.
func (t *RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Expired reports whether the token is past its TTL at now.
func (t *RefreshToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// Counter holds one monotonic sequence.
type Counter struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Key   string             `bson:"key"`
	Value int64              `bson:"value"`
}
