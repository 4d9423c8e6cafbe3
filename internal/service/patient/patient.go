// Package patient implements the patient directory: encrypted demographics,
// contact validation, soft archival and scope-aware listing.
package patient

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type AddressInput struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	County   string `json:"county"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

func (a AddressInput) empty() bool {
	return a.Line1 == "" && a.Line2 == "" && a.City == "" &&
		a.County == "" && a.Postcode == "" && a.Country == ""
}

type CreateRequest struct {
	FirstName      string
	Surname        string
	PreferredName  string
	DateOfBirth    string
	Gender         string
	Email          string
	Phone          string
	SecondaryPhone string

	PrimaryContactName  string
	PrimaryContactEmail string
	PrimaryContactPhone string

	Address            *AddressInput
	PrimaryTherapistID *int64
	BillingMode        string
	Status             string
	EmailActive        *bool
	Tags               []string
	MedicalAlerts      []string
	NotesSummary       string
}

type UpdateRequest = CreateRequest

type ListRequest struct {
	Status          string
	IncludeArchived bool
	Page            int
	PerPage         int
}

// View is the decrypted patient shape returned to handlers.
type View struct {
	ID                  string         `json:"id"`
	PatientID           int64          `json:"patient_id"`
	FirstName           string         `json:"first_name"`
	Surname             string         `json:"surname"`
	PreferredName       string         `json:"preferred_name,omitempty"`
	DateOfBirth         string         `json:"date_of_birth,omitempty"`
	Gender              string         `json:"gender,omitempty"`
	Email               string         `json:"email"`
	Phone               string         `json:"phone"`
	SecondaryPhone      string         `json:"secondary_phone,omitempty"`
	PrimaryContactName  string         `json:"primary_contact_name,omitempty"`
	PrimaryContactEmail string         `json:"primary_contact_email,omitempty"`
	PrimaryContactPhone string         `json:"primary_contact_phone,omitempty"`
	Address             *model.Address `json:"address,omitempty"`
	PrimaryTherapistID  *int64         `json:"primary_therapist_id,omitempty"`
	Status              string         `json:"status"`
	BillingMode         string         `json:"billing_mode"`
	EmailActive         bool           `json:"email_active"`
	Tags                []string       `json:"tags,omitempty"`
	MedicalAlerts       []string       `json:"medical_alerts,omitempty"`
	NotesSummary        string         `json:"notes_summary,omitempty"`
	CreatedAt           time.Time      `json:"createdAt,omitempty"`
	UpdatedAt           time.Time      `json:"updatedAt,omitempty"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error)
	GetByID(ctx context.Context, actor access.Actor, patientID int64) (*View, error)
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
	Update(ctx context.Context, actor access.Actor, patientID int64, req UpdateRequest) (*View, error)
	Archive(ctx context.Context, actor access.Actor, patientID int64) error

	// Raw returns the stored document without scope checks, for internal
	// collaborators (billing, mail) that already validated access.
	Raw(ctx context.Context, patientID int64) (*model.Patient, error)
}

type patientService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
	scope    access.Service
	codec    *fieldcrypt.Codec
}

func New(db *mongo.Database, counters counter.Service, auditor audit.Service, scope access.Service, codec *fieldcrypt.Codec) Service {
	return &patientService{
		db:       db,
		counters: counters,
		auditor:  auditor,
		scope:    scope,
		codec:    codec,
	}
}

func (s *patientService) col() *mongo.Collection {
	return s.db.Collection(model.ColPatients)
}

func (s *patientService) users() *mongo.Collection {
	return s.db.Collection(model.ColUsers)
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

func (s *patientService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*View, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	therapistRef, err := s.resolveTherapist(ctx, req.PrimaryTherapistID)
	if err != nil {
		return nil, err
	}

	id, err := s.counters.Next(ctx, model.CounterPatientID, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	emailActive := true
	if req.EmailActive != nil {
		emailActive = *req.EmailActive
	}

	enc := s.codec.Encryptor()
	p := model.Patient{
		PatientID:      id,
		FirstName:      enc.String(req.FirstName),
		Surname:        enc.String(req.Surname),
		PreferredName:  req.PreferredName,
		Gender:         req.Gender,
		Email:          enc.String(req.Email, fieldcrypt.Lowercase),
		Phone:          enc.String(req.Phone),
		SecondaryPhone: enc.String(req.SecondaryPhone),

		PrimaryContactName:  enc.String(req.PrimaryContactName),
		PrimaryContactEmail: enc.String(req.PrimaryContactEmail, fieldcrypt.Lowercase),
		PrimaryContactPhone: enc.String(req.PrimaryContactPhone),

		Address:            collapseAddress(req.Address),
		PrimaryTherapistID: req.PrimaryTherapistID,
		PrimaryTherapist:   therapistRef,
		Status:             req.Status,
		BillingMode:        req.BillingMode,
		EmailActive:        emailActive,
		Tags:               req.Tags,
		MedicalAlerts:      req.MedicalAlerts,
		NotesSummary:       req.NotesSummary,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, ErrValidation
		}
		dob := enc.Date(t)
		p.DateOfBirth = &dob
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}

	if _, err := s.col().InsertOne(ctx, p); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "patient.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"patient_id": id},
	})

	v := s.toView(&p)
	return &v, nil
}

func (s *patientService) GetByID(ctx context.Context, actor access.Actor, patientID int64) (*View, error) {
	p, err := s.Raw(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if !actor.Admin() {
		ok, err := s.scope.CanSeePatient(ctx, actor, patientID)
		if err != nil {
			return nil, err
		}
		if !ok && !archiveEscape(actor.Role, p) {
			return nil, access.ErrOutOfScope
		}
	}

	v := s.toView(p)
	return &v, nil
}

func (s *patientService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}

	filter := s.scope.PatientFilter(actor, req.IncludeArchived)
	if req.Status != "" {
		filter["status"] = normalizeStatus(req.Status)
	} else if actor.Admin() && !req.IncludeArchived {
		filter["status"] = bson.M{"$ne": model.PatientStatusArchived}
	}

	total, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"patient_id": 1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Patient
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, s.toView(&rows[i]))
	}
	return out, total, nil
}

func (s *patientService) Update(ctx context.Context, actor access.Actor, patientID int64, req UpdateRequest) (*View, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	existing, err := s.Raw(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin() {
		ok, err := s.scope.CanSeePatient(ctx, actor, patientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, access.ErrOutOfScope
		}
	}

	// active -> archived is the only legal status transition.
	if existing.Archived() && req.Status != model.PatientStatusArchived {
		return nil, ErrInvalidStatus
	}

	therapistRef, err := s.resolveTherapist(ctx, req.PrimaryTherapistID)
	if err != nil {
		return nil, err
	}

	enc := s.codec.Encryptor()
	set := bson.M{
		"first_name":            enc.String(req.FirstName),
		"surname":               enc.String(req.Surname),
		"preferred_name":        req.PreferredName,
		"gender":                req.Gender,
		"email":                 enc.String(req.Email, fieldcrypt.Lowercase),
		"phone":                 enc.String(req.Phone),
		"secondary_phone":       enc.String(req.SecondaryPhone),
		"primary_contact_name":  enc.String(req.PrimaryContactName),
		"primary_contact_email": enc.String(req.PrimaryContactEmail, fieldcrypt.Lowercase),
		"primary_contact_phone": enc.String(req.PrimaryContactPhone),
		"status":                req.Status,
		"billing_mode":          req.BillingMode,
		"tags":                  req.Tags,
		"medical_alerts":        req.MedicalAlerts,
		"notes_summary":         req.NotesSummary,
		"updatedAt":             time.Now().UTC(),
	}
	if req.EmailActive != nil {
		set["email_active"] = *req.EmailActive
	}
	if req.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, ErrValidation
		}
		set["date_of_birth"] = enc.Date(t)
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}
	if req.PrimaryTherapistID != nil {
		set["primary_therapist_id"] = *req.PrimaryTherapistID
		set["primaryTherapist"] = therapistRef
	}

	// An address cleared on edit nulls the block explicitly rather than
	// leaving the old value behind.
	if addr := collapseAddress(req.Address); addr != nil {
		set["address"] = addr
	} else if req.Address != nil {
		set["address"] = nil
	}

	if _, err := s.col().UpdateOne(ctx, bson.M{"patient_id": patientID}, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "patient.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"patient_id": patientID},
	})

	updated, err := s.Raw(ctx, patientID)
	if err != nil {
		return nil, err
	}
	v := s.toView(updated)
	return &v, nil
}

// Archive soft-deletes: status flips to archived and the record drops out of
// default listings.
func (s *patientService) Archive(ctx context.Context, actor access.Actor, patientID int64) error {
	res, err := s.col().UpdateOne(ctx,
		bson.M{"patient_id": patientID},
		bson.M{"$set": bson.M{"status": model.PatientStatusArchived, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "patient.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"patient_id": patientID},
	})
	return nil
}

func (s *patientService) Raw(ctx context.Context, patientID int64) (*model.Patient, error) {
	var p model.Patient
	err := s.col().FindOne(ctx, bson.M{"patient_id": patientID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func validate(req *CreateRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.FirstName == "" || req.Surname == "" || req.Email == "" || req.Phone == "" {
		return ErrValidation
	}

	var err error
	if req.Phone, err = normalizePhone(req.Phone); err != nil {
		return err
	}
	if req.SecondaryPhone, err = normalizePhone(req.SecondaryPhone); err != nil {
		return err
	}
	if req.PrimaryContactPhone, err = normalizePhone(req.PrimaryContactPhone); err != nil {
		return err
	}

	req.Status = normalizeStatus(req.Status)
	if req.Status != model.PatientStatusActive && req.Status != model.PatientStatusArchived {
		return ErrInvalidStatus
	}

	if req.BillingMode == "" {
		req.BillingMode = model.BillingIndividual
	}
	if req.BillingMode != model.BillingIndividual && req.BillingMode != model.BillingMonthly {
		return ErrInvalidBillingMode
	}

	// The primary contact block is all-or-nothing.
	anyContact := req.PrimaryContactName != "" || req.PrimaryContactEmail != "" || req.PrimaryContactPhone != ""
	allContact := req.PrimaryContactName != "" && req.PrimaryContactEmail != "" && req.PrimaryContactPhone != ""
	if anyContact && !allContact {
		return ErrPartialContact
	}
	return nil
}

// archiveEscape reports whether an out-of-scope record is still readable by
// id. Receptionist scope hides archived rows from listings only, so an
// archived patient stays fetchable. Therapist scope is ownership; archival
// never widens it.
func archiveEscape(role authorize.Role, p *model.Patient) bool {
	return role == authorize.RoleReceptionist && p.Archived()
}

func normalizeStatus(status string) string {
	switch status {
	case "", model.PatientStatusActive:
		return model.PatientStatusActive
	case "inactive", model.PatientStatusArchived:
		return model.PatientStatusArchived
	default:
		return status
	}
}

func collapseAddress(in *AddressInput) *model.Address {
	if in == nil || in.empty() {
		return nil
	}
	return &model.Address{
		Line1:    in.Line1,
		Line2:    in.Line2,
		City:     in.City,
		County:   in.County,
		Postcode: in.Postcode,
		Country:  in.Country,
	}
}

func (s *patientService) resolveTherapist(ctx context.Context, employeeID *int64) (*primitive.ObjectID, error) {
	if employeeID == nil {
		return nil, nil
	}
	var u model.User
	err := s.users().FindOne(ctx, bson.M{"employeeID": *employeeID, "active": true}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTherapistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u.ID, nil
}

func (s *patientService) toView(p *model.Patient) View {
	v := View{
		ID:                  p.ID.Hex(),
		PatientID:           p.PatientID,
		FirstName:           s.codec.DecryptString(p.FirstName),
		Surname:             s.codec.DecryptString(p.Surname),
		PreferredName:       p.PreferredName,
		Gender:              p.Gender,
		Email:               s.codec.DecryptString(p.Email),
		Phone:               s.codec.DecryptString(p.Phone),
		SecondaryPhone:      s.codec.DecryptString(p.SecondaryPhone),
		PrimaryContactName:  s.codec.DecryptString(p.PrimaryContactName),
		PrimaryContactEmail: s.codec.DecryptString(p.PrimaryContactEmail),
		PrimaryContactPhone: s.codec.DecryptString(p.PrimaryContactPhone),
		Address:             p.Address,
		PrimaryTherapistID:  p.PrimaryTherapistID,
		Status:              p.Status,
		BillingMode:         p.BillingMode,
		EmailActive:         p.EmailActive,
		Tags:                p.Tags,
		MedicalAlerts:       p.MedicalAlerts,
		NotesSummary:        p.NotesSummary,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.DateOfBirth != nil {
		if t := s.codec.DecryptDate(*p.DateOfBirth); !t.IsZero() {
			v.DateOfBirth = t.Format("2006-01-02")
		}
	}
	return v
}
