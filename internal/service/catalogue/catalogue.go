// Package catalogue maintains the treatment catalogue appointments and
// invoices price from.
package catalogue

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
	ErrNotFound   = errors.New("treatment not found")
	ErrValidation = errors.New("invalid treatment")
)

type CreateRequest struct {
	Description     string
	Price           float64
	DurationMinutes int
	Notes           string
}

type UpdateRequest struct {
	Description     *string
	Price           *float64
	DurationMinutes *int
	Active          *bool
	Notes           *string
}

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*model.Service, error)
	GetByID(ctx context.Context, treatmentID int64) (*model.Service, error)
	List(ctx context.Context, includeInactive bool) ([]model.Service, error)
	Update(ctx context.Context, actor access.Actor, treatmentID int64, req UpdateRequest) (*model.Service, error)
	Deactivate(ctx context.Context, actor access.Actor, treatmentID int64) error
}

type catalogueService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
}

func New(db *mongo.Database, counters counter.Service, auditor audit.Service) Service {
	return &catalogueService{db: db, counters: counters, auditor: auditor}
}

func (s *catalogueService) col() *mongo.Collection {
	return s.db.Collection(model.ColServices)
}

func (s *catalogueService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*model.Service, error) {
	if strings.TrimSpace(req.Description) == "" || req.Price < 0 {
		return nil, ErrValidation
	}

	id, err := s.counters.Next(ctx, model.CounterServiceID, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := model.Service{
		TreatmentID:          id,
		TreatmentDescription: req.Description,
		Price:                req.Price,
		DurationMinutes:      req.DurationMinutes,
		Active:               true,
		Notes:                req.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if _, err := s.col().InsertOne(ctx, row); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "service.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"treatment_id": id},
	})
	return s.GetByID(ctx, id)
}

func (s *catalogueService) GetByID(ctx context.Context, treatmentID int64) (*model.Service, error) {
	var row model.Service
	err := s.col().FindOne(ctx, bson.M{"treatment_id": treatmentID}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *catalogueService) List(ctx context.Context, includeInactive bool) ([]model.Service, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["active"] = true
	}

	cur, err := s.col().Find(ctx, filter, options.Find().SetSort(bson.M{"treatment_description": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []model.Service
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *catalogueService) Update(ctx context.Context, actor access.Actor, treatmentID int64, req UpdateRequest) (*model.Service, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ErrValidation
		}
		set["treatment_description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, ErrValidation
		}
		set["price"] = *req.Price
	}
	if req.DurationMinutes != nil {
		set["duration_minutes"] = *req.DurationMinutes
	}
	if req.Active != nil {
		set["active"] = *req.Active
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}

	res, err := s.col().UpdateOne(ctx, bson.M{"treatment_id": treatmentID}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	s.auditor.Record(ctx, "service.update", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"treatment_id": treatmentID},
	})
	return s.GetByID(ctx, treatmentID)
}

func (s *catalogueService) Deactivate(ctx context.Context, actor access.Actor, treatmentID int64) error {
	res, err := s.col().UpdateOne(ctx, bson.M{"treatment_id": treatmentID}, bson.M{
		"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "service.deactivate", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"treatment_id": treatmentID},
	})
	return nil
}
