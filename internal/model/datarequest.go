package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Data-subject request types under UK GDPR.
const (
	DSRAccess        = "access"
	DSRRectification = "rectification"
	DSRErasure       = "erasure"
	DSRRestriction   = "restriction"
	DSRPortability   = "portability"
)

// Data-subject request statuses.
const (
	DSROpen       = "open"
	DSRInProgress = "in_progress"
	DSRFulfilled  = "fulfilled"
	DSRRejected   = "rejected"
)

// DSRHistoryEntry is one status change on a request.
type DSRHistoryEntry struct {
	Status    string              `bson:"status"`
	Note      string              `bson:"note,omitempty"`
	ChangedBy *primitive.ObjectID `bson:"changedBy,omitempty"`
	ChangedAt time.Time           `bson:"changedAt"`
}

// DataSubjectRequest tracks a patient's statutory data request through to
// completion.
type DataSubjectRequest struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	RequestID      int64               `bson:"request_id"`
	PatientID      int64               `bson:"patient_id"`
	Type           string              `bson:"type"`
	Status         string              `bson:"status"`
	RequesterName  string              `bson:"requesterName"`
	RequesterEmail string              `bson:"requesterEmail,omitempty"`
	ReceivedAt     *time.Time          `bson:"receivedAt,omitempty"`
	DueAt          time.Time           `bson:"dueAt"`
	CompletedAt    *time.Time          `bson:"completedAt,omitempty"`
	HandledBy      *primitive.ObjectID `bson:"handledBy,omitempty"`
	Notes          string              `bson:"notes,omitempty"`
	History        []DSRHistoryEntry   `bson:"history,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt,omitempty"`
	UpdatedAt      time.Time           `bson:"updatedAt,omitempty"`
}

// ValidDSRType reports whether t is a recognized request type.
func ValidDSRType(t string) bool {
	switch t {
	case DSRAccess, DSRRectification, DSRErasure, DSRRestriction, DSRPortability:
		return true
	}
	return false
}

// ValidDSRStatus reports whether s is a recognized request status.
func ValidDSRStatus(s string) bool {
	switch s {
	case DSROpen, DSRInProgress, DSRFulfilled, DSRRejected:
		return true
	}
	return false
}
