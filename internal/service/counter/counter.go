// Package counter issues monotonic integer ids, one named sequence per
// aggregate type.
package counter

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

type Service interface {
	// Next atomically increments the named sequence and returns the
	// post-increment value. Missing sequences start from inc.
	Next(ctx context.Context, key string, inc int64) (int64, error)

	// Peek returns the current value without incrementing. Missing
	// sequences read as zero.
	Peek(ctx context.Context, key string) (int64, error)
}

type counterService struct {
	col *mongo.Collection
}

func New(db *mongo.Database) Service {
	return &counterService{col: db.Collection(model.ColCounters)}
}

func (s *counterService) Next(ctx context.Context, key string, inc int64) (int64, error) {
	if inc <= 0 {
		inc = 1
	}

	// findOneAndUpdate with upsert makes the increment atomic under
	// concurrent callers; ReturnDocument(After) yields the claimed value.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out model.Counter
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"key": key},
		bson.M{"$inc": bson.M{"value": inc}},
		opts,
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	return out.Value, nil
}

func (s *counterService) Peek(ctx context.Context, key string) (int64, error) {
	var out model.Counter
	err := s.col.FindOne(ctx, bson.M{"key": key}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", key, err)
	}
	return out.Value, nil
}
