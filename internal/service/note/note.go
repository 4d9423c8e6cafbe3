// Package note manages standalone patient notes with visibility levels.
package note

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
)

var (
	ErrNotFound   = errors.New("note not found")
	ErrValidation = errors.New("invalid note")
	ErrForbidden  = errors.New("note is not visible to the caller")
)

type CreateRequest struct {
	PatientID     int64
	AppointmentID *int64
	Type          string
	Note          string
	Visibility    string
	Date          *time.Time
	Attachments   []model.NoteAttachment
}

type UpdateRequest struct {
	Note       *string
	Type       *string
	Visibility *string
	Date       *time.Time
}

type ListRequest struct {
	PatientID     *int64
	AppointmentID *int64
	Type          string
	Page          int
	PerPage       int
}

// View is the decrypted note projection.
type View struct {
	ID            string                 `json:"id"`
	PatientID     int64                  `json:"patient_id"`
	AppointmentID *int64                 `json:"appointment_id,omitempty"`
	EmployeeID    *int64                 `json:"employeeID,omitempty"`
	Author        string                 `json:"author,omitempty"`
	Type          string                 `json:"type,omitempty"`
	Note          string                 `json:"note"`
	Visibility    string                 `json:"visibility,omitempty"`
	Date          *time.Time             `json:"date,omitempty"`
	Attachments   []model.NoteAttachment `json:"attachments,omitempty"`
	CreatedAt     time.Time              `json:"createdAt,omitempty"`
	UpdatedAt     time.Time              `json:"updatedAt,omitempty"`
}

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error)
	GetByID(ctx context.Context, actor access.Actor, id string) (*View, error)
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
	Update(ctx context.Context, actor access.Actor, id string, req UpdateRequest) (*View, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
}

type noteService struct {
	db      *mongo.Database
	auditor audit.Service
	scope   access.Service
	codec   *fieldcrypt.Codec
}

func New(db *mongo.Database, auditor audit.Service, scope access.Service, codec *fieldcrypt.Codec) Service {
	return &noteService{db: db, auditor: auditor, scope: scope, codec: codec}
}

func (s *noteService) col() *mongo.Collection {
	return s.db.Collection(model.ColNotes)
}

func validType(t string) bool {
	switch t {
	case "", model.NoteTreatment, model.NoteCommunication, model.NoteAdministrative:
		return true
	}
	return false
}

func validVisibility(v string) bool {
	switch v {
	case "", model.VisibilityPrivate, model.VisibilityTeam, model.VisibilityAdmin:
		return true
	}
	return false
}

func (s *noteService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error) {
	if req.PatientID == 0 || strings.TrimSpace(req.Note) == "" {
		return nil, ErrValidation
	}
	if !validType(req.Type) || !validVisibility(req.Visibility) {
		return nil, ErrValidation
	}
	if ok, err := s.scope.CanSeePatient(ctx, actor, req.PatientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, access.ErrOutOfScope
	}

	enc := s.codec.Encryptor()
	stored := enc.String(req.Note)
	if err := enc.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityTeam
	}

	row := model.Note{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		EmployeeID:    &actor.EmployeeID,
		Author:        &actor.UserID,
		Type:          req.Type,
		Note:          stored,
		Visibility:    visibility,
		Date:          req.Date,
		Attachments:   req.Attachments,
		CreatedBy:     &actor.UserID,
		UpdatedBy:     &actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res, err := s.col().InsertOne(ctx, row)
	if err != nil {
		return nil, err
	}
	row.ID = res.InsertedID.(primitive.ObjectID)

	s.auditor.Record(ctx, "note.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"patient_id": req.PatientID},
	})

	v := s.toView(&row)
	return &v, nil
}

// visible applies the note's visibility on top of patient scoping: private
// notes are author-only, admin notes are admin-only.
func (s *noteService) visible(n *model.Note, actor access.Actor) bool {
	switch n.Visibility {
	case model.VisibilityPrivate:
		return n.Author != nil && *n.Author == actor.UserID
	case model.VisibilityAdmin:
		return actor.Admin()
	}
	return true
}

func (s *noteService) GetByID(ctx context.Context, actor access.Actor, id string) (*View, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrValidation
	}

	filter, err := s.scope.DerivedFilter(ctx, actor, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}

	var n model.Note
	err = s.col().FindOne(ctx, filter).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !s.visible(&n, actor) {
		return nil, ErrForbidden
	}

	v := s.toView(&n)
	return &v, nil
}

func (s *noteService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}

	base := bson.M{}
	if req.PatientID != nil {
		base["patient_id"] = *req.PatientID
	}
	if req.AppointmentID != nil {
		base["appointment_id"] = *req.AppointmentID
	}
	if req.Type != "" {
		base["type"] = req.Type
	}
	// Visibility narrowing happens in the query so counts stay honest.
	if !actor.Admin() {
		base["$or"] = bson.A{
			bson.M{"visibility": bson.M{"$in": bson.A{"", model.VisibilityTeam, nil}}},
			bson.M{"visibility": model.VisibilityPrivate, "author": actor.UserID},
		}
	}

	filter, err := s.scope.DerivedFilter(ctx, actor, base)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Note
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, s.toView(&rows[i]))
	}
	return out, total, nil
}

func (s *noteService) Update(ctx context.Context, actor access.Actor, id string, req UpdateRequest) (*View, error) {
	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	// Only the author or an admin may edit.
	if !actor.Admin() && (existing.Author == nil || *existing.Author != actor.UserID) {
		return nil, ErrForbidden
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": actor.UserID}
	if req.Note != nil {
		if strings.TrimSpace(*req.Note) == "" {
			return nil, ErrValidation
		}
		enc := s.codec.Encryptor()
		set["note"] = enc.String(*req.Note)
		if err := enc.Err(); err != nil {
			return nil, err
		}
	}
	if req.Type != nil {
		if !validType(*req.Type) {
			return nil, ErrValidation
		}
		set["type"] = *req.Type
	}
	if req.Visibility != nil {
		if !validVisibility(*req.Visibility) {
			return nil, ErrValidation
		}
		set["visibility"] = *req.Visibility
	}
	if req.Date != nil {
		set["date"] = *req.Date
	}

	if _, err := s.col().UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, actor, id)
}

func (s *noteService) Delete(ctx context.Context, actor access.Actor, id string) error {
	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.Admin() && (existing.Author == nil || *existing.Author != actor.UserID) {
		return ErrForbidden
	}

	if _, err := s.col().DeleteOne(ctx, bson.M{"_id": existing.ID}); err != nil {
		return err
	}

	s.auditor.Record(ctx, "note.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"id": id, "patient_id": existing.PatientID},
	})
	return nil
}

func (s *noteService) load(ctx context.Context, actor access.Actor, id string) (*model.Note, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrValidation
	}

	filter, err := s.scope.DerivedFilter(ctx, actor, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}

	var n model.Note
	err = s.col().FindOne(ctx, filter).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *noteService) toView(n *model.Note) View {
	author := ""
	if n.Author != nil {
		author = n.Author.Hex()
	}
	return View{
		ID:            n.ID.Hex(),
		PatientID:     n.PatientID,
		AppointmentID: n.AppointmentID,
		EmployeeID:    n.EmployeeID,
		Author:        author,
		Type:          n.Type,
		Note:          s.codec.DecryptString(n.Note),
		Visibility:    n.Visibility,
		Date:          n.Date,
		Attachments:   n.Attachments,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}
