// Package access implements row-level scoping: which patient records, and
// records derived from them, an actor may see. Role gating lives in
// pkg/authorize; this package narrows queries after the gate passes.
package access

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

// ErrOutOfScope is returned when an actor addresses a record their scope
// excludes. The HTTP layer maps it to 403.
var ErrOutOfScope = errors.New("record is outside the caller's scope")

// Actor is the authenticated caller, resolved from the access token.
type Actor struct {
	UserID     primitive.ObjectID
	Role       authorize.Role
	EmployeeID int64
	IPAddress  string
}

// Admin reports whether the actor has unrestricted scope.
func (a Actor) Admin() bool { return a.Role == authorize.RoleAdmin }

type Service interface {
	// PatientFilter returns the predicate limiting a patients query to the
	// actor's scope. includeArchived widens receptionist scope to archived
	// rows; admins always see everything.
	PatientFilter(a Actor, includeArchived bool) bson.M

	// ScopedPatientIDs resolves the patient_id set the actor may see.
	// The boolean is false when the actor is unrestricted and no
	// constraint is needed.
	ScopedPatientIDs(ctx context.Context, a Actor) ([]int64, bool, error)

	// DerivedFilter constrains a derivative-resource query (appointments,
	// communications) to the actor's patient scope. An empty scoped set
	// yields an impossible predicate so the query returns no rows.
	DerivedFilter(ctx context.Context, a Actor, base bson.M) (bson.M, error)

	// InvoiceFilter is DerivedFilter with the creator escape hatch:
	// records the actor created stay visible outside patient scope.
	InvoiceFilter(ctx context.Context, a Actor, base bson.M) (bson.M, error)

	// CanSeePatient checks one patient id against the actor's scope.
	CanSeePatient(ctx context.Context, a Actor, patientID int64) (bool, error)
}

type accessService struct {
	patients *mongo.Collection
}

func New(db *mongo.Database) Service {
	return &accessService{patients: db.Collection(model.ColPatients)}
}

func (s *accessService) PatientFilter(a Actor, includeArchived bool) bson.M {
	filter := bson.M{}
	switch a.Role {
	case authorize.RoleAdmin:
		// unrestricted
	case authorize.RoleTherapist:
		filter["primaryTherapist"] = a.UserID
	default:
		// Receptionists see active patients only.
		includeArchived = false
	}
	if !includeArchived && !a.Admin() {
		filter["status"] = bson.M{"$ne": model.PatientStatusArchived}
	}
	return filter
}

func (s *accessService) ScopedPatientIDs(ctx context.Context, a Actor) ([]int64, bool, error) {
	if a.Admin() {
		return nil, false, nil
	}

	filter := s.PatientFilter(a, a.Role == authorize.RoleTherapist)
	cur, err := s.patients.Find(ctx, filter)
	if err != nil {
		return nil, true, err
	}
	defer cur.Close(ctx)

	var ids []int64
	for cur.Next(ctx) {
		var row struct {
			PatientID int64 `bson:"patient_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, true, err
		}
		ids = append(ids, row.PatientID)
	}
	return ids, true, cur.Err()
}

func (s *accessService) DerivedFilter(ctx context.Context, a Actor, base bson.M) (bson.M, error) {
	ids, constrained, err := s.ScopedPatientIDs(ctx, a)
	if err != nil {
		return nil, err
	}
	if !constrained {
		return base, nil
	}
	out := cloneFilter(base)
	if len(ids) == 0 {
		// Nothing in scope: match no documents without touching the
		// main collection's data.
		out["patient_id"] = bson.M{"$in": []int64{}}
		return out, nil
	}
	out["patient_id"] = bson.M{"$in": ids}
	return out, nil
}

func (s *accessService) InvoiceFilter(ctx context.Context, a Actor, base bson.M) (bson.M, error) {
	ids, constrained, err := s.ScopedPatientIDs(ctx, a)
	if err != nil {
		return nil, err
	}
	if !constrained {
		return base, nil
	}
	out := cloneFilter(base)
	out["$or"] = bson.A{
		bson.M{"patient_id": bson.M{"$in": ids}},
		bson.M{"createdBy": a.UserID},
	}
	return out, nil
}

func (s *accessService) CanSeePatient(ctx context.Context, a Actor, patientID int64) (bool, error) {
	if a.Admin() {
		return true, nil
	}
	ids, _, err := s.ScopedPatientIDs(ctx, a)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == patientID {
			return true, nil
		}
	}
	// Receptionist scope excludes only archived patients; an id missing
	// from the set may still exist archived, which stays hidden.
	return false, nil
}

func cloneFilter(base bson.M) bson.M {
	out := bson.M{}
	for k, v := range base {
		out[k] = v
	}
	return out
}
