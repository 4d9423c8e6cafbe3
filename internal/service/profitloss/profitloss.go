// Package profitloss maintains the clinic's income and expense ledger. Paid
// invoices feed income rows; expenses are entered by hand.
package profitloss

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
	ErrNotFound   = errors.New("ledger entry not found")
	ErrValidation = errors.New("invalid ledger entry")
)

type CreateRequest struct {
	Date        time.Time
	Type        string
	Category    string
	Description string
	Amount      float64
}

type ListRequest struct {
	Type    string
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

// Summary totals a window of the ledger.
type Summary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateRequest) (*model.ProfitLossEntry, error)
	List(ctx context.Context, req ListRequest) ([]model.ProfitLossEntry, int64, error)
	Delete(ctx context.Context, actor access.Actor, entryID int64) error
	Summarize(ctx context.Context, from, to time.Time) (*Summary, error)

	// RecordInvoiceIncome creates the automatic income row for a paid
	// invoice. Idempotent per invoice number.
	RecordInvoiceIncome(ctx context.Context, actor access.Actor, inv *model.Invoice) error
}

type ledgerService struct {
	db       *mongo.Database
	counters counter.Service
	auditor  audit.Service
}

func New(db *mongo.Database, counters counter.Service, auditor audit.Service) Service {
	return &ledgerService{db: db, counters: counters, auditor: auditor}
}

func (s *ledgerService) col() *mongo.Collection {
	return s.db.Collection(model.ColProfitLossEntries)
}

func validEntryType(t string) bool {
	return t == model.PLIncome || t == model.PLExpense
}

func (s *ledgerService) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*model.ProfitLossEntry, error) {
	if !validEntryType(req.Type) || req.Amount <= 0 || req.Date.IsZero() {
		return nil, ErrValidation
	}

	id, err := s.counters.Next(ctx, model.CounterProfitLossEntry, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := model.ProfitLossEntry{
		EntryID:     id,
		Date:        req.Date,
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Amount:      req.Amount,
		Source:      model.PLSourceManual,
		CreatedBy:   actor.UserID,
		UpdatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.col().InsertOne(ctx, row); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, "profit_loss.create", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"entry_id": id, "type": req.Type, "amount": req.Amount},
	})

	var out model.ProfitLossEntry
	if err := s.col().FindOne(ctx, bson.M{"entry_id": id}).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ledgerService) RecordInvoiceIncome(ctx context.Context, actor access.Actor, inv *model.Invoice) error {
	n, err := s.col().CountDocuments(ctx, bson.M{
		"source":         model.PLSourceInvoice,
		"invoice_number": inv.InvoiceNumber,
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	id, err := s.counters.Next(ctx, model.CounterProfitLossEntry, 1)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	date := now
	if inv.PaidAt != nil {
		date = *inv.PaidAt
	}

	row := model.ProfitLossEntry{
		EntryID:       id,
		Date:          date,
		Type:          model.PLIncome,
		Category:      "treatment",
		Description:   "Invoice " + inv.InvoiceNumber,
		Amount:        inv.TotalPaid,
		Source:        model.PLSourceInvoice,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceRef:    &inv.ID,
		CreatedBy:     actor.UserID,
		UpdatedBy:     actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err = s.col().InsertOne(ctx, row)
	return err
}

func (s *ledgerService) List(ctx context.Context, req ListRequest) ([]model.ProfitLossEntry, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 500 {
		req.PerPage = 100
	}

	filter := bson.M{}
	if req.Type != "" {
		if !validEntryType(req.Type) {
			return nil, 0, ErrValidation
		}
		filter["type"] = req.Type
	}
	if req.From != nil || req.To != nil {
		window := bson.M{}
		if req.From != nil {
			window["$gte"] = *req.From
		}
		if req.To != nil {
			window["$lte"] = *req.To
		}
		filter["date"] = window
	}

	total, err := s.col().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"date": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := s.col().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.ProfitLossEntry
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *ledgerService) Delete(ctx context.Context, actor access.Actor, entryID int64) error {
	res, err := s.col().DeleteOne(ctx, bson.M{"entry_id": entryID, "source": model.PLSourceManual})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	s.auditor.Record(ctx, "profit_loss.delete", true, audit.Entry{
		Actor: &actor.UserID, ActorRole: string(actor.Role), IPAddress: actor.IPAddress,
		Metadata: map[string]any{"entry_id": entryID},
	})
	return nil
}

func (s *ledgerService) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	match := bson.M{}
	if !from.IsZero() || !to.IsZero() {
		window := bson.M{}
		if !from.IsZero() {
			window["$gte"] = from
		}
		if !to.IsZero() {
			window["$lte"] = to
		}
		match["date"] = window
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$type", "total": bson.M{"$sum": "$amount"}}}},
	}
	cur, err := s.col().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Type  string  `bson:"_id"`
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := &Summary{}
	for _, r := range rows {
		switch r.Type {
		case model.PLIncome:
			out.Income = r.Total
		case model.PLExpense:
			out.Expenses = r.Total
		}
	}
	out.Net = out.Income - out.Expenses
	return out, nil
}
