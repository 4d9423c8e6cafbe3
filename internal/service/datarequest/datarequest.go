// Package datarequest tracks UK GDPR data-subject requests against patients,
// with a one-calendar-month statutory deadline and a full status history.
package datarequest

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
)

var (
	ErrNotFound        = errors.New("data-subject request not found")
	ErrValidation      = errors.New("invalid data-subject request")
	ErrPatientNotFound = errors.New("patient not found")
)

type CreateRequest struct {
	PatientID      int64
	Type           string
	RequesterName  string
	RequesterEmail string
	ReceivedAt     *time.Time
	Notes          string
}

type StatusRequest struct {
	Status string
	Note   string
}

type ListRequest struct {
	PatientID *int64
	Status    string
	Type      string
	Overdue   bool
	Page      int
	PerPage   int
}

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*model.DataSubjectRequest, error)
	GetByID(ctx context.Context, requestID int64) (*model.DataSubjectRequest, error)
	List(ctx context.Context, req ListRequest) ([]model.DataSubjectRequest, int64, error)

	// SetStatus moves the request along its lifecycle, appending to the
	// history. Fulfilled and rejected stamp completedAt.
	SetStatus(ctx context.Context, actor access.Actor, requestID int64, req StatusRequest) (*model.DataSubjectRequest, error)
}

type dsrService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
}

func New(db *mongo.Database, counters counter.Service, auditor audit.Service) Service {
	return &dsrService{db: db, counters: counters, auditor: auditor}
}

func (s *dsrService) col() *mongo.Collection {
	return s.db.Collection(model.ColDataSubjectRequests)
}

func (s *dsrService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*model.DataSubjectRequest, error) {
	if !model.ValidDSRType(req.Type) || strings.TrimSpace(req.RequesterName) == "" {
		return nil, ErrValidation
	}

	n, err := s.db.Collection(model.ColPatients).CountDocuments(ctx, bson.M{"patient_id": req.PatientID})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrPatientNotFound
	}

	id, err := s.counters.Next(ctx, model.CounterDataRequestID, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	received := now
	if req.ReceivedAt != nil {
		received = *req.ReceivedAt
	}

	row := model.DataSubjectRequest{
		RequestID:      id,
		PatientID:      req.PatientID,
		Type:           req.Type,
		Status:         model.DSROpen,
		RequesterName:  req.RequesterName,
		RequesterEmail: strings.ToLower(strings.TrimSpace(req.RequesterEmail)),
		ReceivedAt:     &received,
		DueAt:          received.AddDate(0, 1, 0),
		Notes:          req.Notes,
		History: []model.DSRHistoryEntry{{
			Status:    model.DSROpen,
			ChangedBy: &actor.UserID,
			ChangedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.col().InsertOne(ctx, row); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "data_request.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"request_id": id, "patient_id": req.PatientID, "type": req.Type},
	})
	return s.GetByID(ctx, id)
}

func (s *dsrService) GetByID(ctx context.Context, requestID int64) (*model.DataSubjectRequest, error) {
	var row model.DataSubjectRequest
	err := s.col().FindOne(ctx, bson.M{"request_id": requestID}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *dsrService) List(ctx context.Context, req ListRequest) ([]model.DataSubjectRequest, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}

	filter := bson.M{}
	if req.PatientID != nil {
		filter["patient_id"] = *req.PatientID
	}
	if req.Status != "" {
		filter["status"] = req.Status
	}
	if req.Type != "" {
		filter["type"] = req.Type
	}
	if req.Overdue {
		filter["dueAt"] = bson.M{"$lt": time.Now().UTC()}
		filter["status"] = bson.M{"$in": bson.A{model.DSROpen, model.DSRInProgress}}
	}

	total, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"dueAt": 1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.DataSubjectRequest
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *dsrService) SetStatus(ctx context.Context, actor access.Actor, requestID int64, req StatusRequest) (*model.DataSubjectRequest, error) {
	if !model.ValidDSRStatus(req.Status) {
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":    req.Status,
		"handledBy": actor.UserID,
		"updatedAt": now,
	}
	if req.Status == model.DSRFulfilled || req.Status == model.DSRRejected {
		set["completedAt"] = now
	}

	entry := model.DSRHistoryEntry{
		Status:    req.Status,
		Note:      req.Note,
		ChangedBy: &actor.UserID,
		ChangedAt: now,
	}
	res, err := s.col().UpdateOne(ctx, bson.M{"request_id": requestID}, bson.M{
		"$set":  set,
		"$push": bson.M{"history": entry},
	})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	s.auditor.Record(ctx, "data_request.status", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"request_id": requestID, "status": req.Status},
	})
	return s.GetByID(ctx, requestID)
}
