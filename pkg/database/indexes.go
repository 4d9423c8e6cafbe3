package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

// EnsureIndexes creates the unique, TTL and lookup indexes the services
// rely on. Safe to run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	specs := []indexSpec{
		{"users", mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique}},
		{"users", mongo.IndexModel{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		}},
		{"patients", mongo.IndexModel{Keys: bson.D{{Key: "patient_id", Value: 1}}, Options: unique}},
		{"appointments", mongo.IndexModel{Keys: bson.D{{Key: "appointment_id", Value: 1}}, Options: unique}},
		{"appointments", mongo.IndexModel{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "date", Value: 1}}}},
		{"invoices", mongo.IndexModel{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: unique}},
		{"invoices", mongo.IndexModel{Keys: bson.D{{Key: "invoice_id", Value: 1}}, Options: unique}},
		// Each appointment may be billed by at most one invoice. A multikey
		// unique index over the array closes the create/create race.
		{"invoices", mongo.IndexModel{
			Keys: bson.D{{Key: "appointment_ids", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"appointment_ids": bson.M{"$exists": true}}),
		}},
		{"payments", mongo.IndexModel{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: unique}},
		{"payments", mongo.IndexModel{Keys: bson.D{{Key: "invoice_id", Value: 1}}}},
		{"receipts", mongo.IndexModel{Keys: bson.D{{Key: "receipt_number", Value: 1}}, Options: unique}},
		{"receipts", mongo.IndexModel{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: unique}},
		{"counters", mongo.IndexModel{Keys: bson.D{{Key: "key", Value: 1}}, Options: unique}},
		{"refreshtokens", mongo.IndexModel{Keys: bson.D{{Key: "tokenId", Value: 1}}, Options: unique}},
		{"refreshtokens", mongo.IndexModel{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		}},
		{"communications", mongo.IndexModel{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{"auditlogs", mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		{"services", mongo.IndexModel{Keys: bson.D{{Key: "treatment_id", Value: 1}}, Options: unique}},
		{"datasubjectrequests", mongo.IndexModel{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: unique}},
		{"profit_loss_entries", mongo.IndexModel{Keys: bson.D{{Key: "date", Value: -1}}}},
	}

	for _, s := range specs {
		if _, err := db.Collection(s.collection).Indexes().CreateOne(ctx, s.model); err != nil {
			return fmt.Errorf("create index on %s: %w", s.collection, err)
		}
	}
	return nil
}
