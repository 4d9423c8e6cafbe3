// Package audit appends immutable event records. Recording failures are
// logged locally and never propagate to the caller.
package audit

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

// Entry carries the optional fields of an audit record.
type Entry struct {
	Actor     *primitive.ObjectID
	ActorRole string
	User      *primitive.ObjectID
	UserRole  string
	IPAddress string
	Metadata  map[string]any
}

type ListRequest struct {
	Event   string
	ActorID *primitive.ObjectID
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

type Service interface {
	// Record inserts one event row. It never returns an error.
	Record(ctx context.Context, event string, success bool, e Entry)

	// List pages through the log, newest first. Admin only, enforced by
	// the HTTP layer.
	List(ctx context.Context, req ListRequest) ([]model.AuditLog, int64, error)
}

type auditService struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func New(db *mongo.Database, logger *slog.Logger) Service {
	return &auditService{
		col:    db.Collection(model.ColAuditLogs),
		logger: logger,
	}
}

func (s *auditService) Record(ctx context.Context, event string, success bool, e Entry) {
	row := model.AuditLog{
		Event:     event,
		User:      e.User,
		UserRole:  e.UserRole,
		Actor:     e.Actor,
		ActorRole: e.ActorRole,
		IPAddress: e.IPAddress,
		Metadata:  e.Metadata,
		Success:   success,
		CreatedAt: time.Now().UTC(),
	}

	// Detach from the request context so a cancelled request still gets
	// its trail written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := s.col.InsertOne(ctx, row); err != nil {
		s.logger.Error("audit record failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// eventPrefixFilter matches events by literal prefix. Event names contain
// dots, so the caller's input is quoted before it reaches the regex engine.
func eventPrefixFilter(event string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(event)}
}

func (s *auditService) List(ctx context.Context, req ListRequest) ([]model.AuditLog, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}

	filter := bson.M{}
	if req.Event != "" {
		filter["event"] = eventPrefixFilter(req.Event)
	}
	if req.ActorID != nil {
		filter["actor"] = *req.ActorID
	}
	if req.From != nil || req.To != nil {
		rng := bson.M{}
		if req.From != nil {
			rng["$gte"] = *req.From
		}
		if req.To != nil {
			rng["$lte"] = *req.To
		}
		filter["createdAt"] = rng
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.AuditLog
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
