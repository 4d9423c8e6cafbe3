// Package report aggregates dashboard figures straight from the collections.
package report

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

// AppointmentCounts breaks down appointments by status within the window.
// Cancelled is the sum of the four cancellation sub-statuses, which are also
// exposed individually.
type AppointmentCounts struct {
	Total                int64 `json:"total"`
	Scheduled            int64 `json:"scheduled"`
	Completed            int64 `json:"completed"`
	Cancelled            int64 `json:"cancelled"`
	CancelledSameDay     int64 `json:"cancelled_same_day"`
	CancelledByPatient   int64 `json:"cancelled_by_patient"`
	CancelledByTherapist int64 `json:"cancelled_by_therapist"`
	CancelledOther       int64 `json:"cancelled_other"`
	Other                int64 `json:"other"`
}

// RevenueBucket is one YYYY-MM revenue row.
type RevenueBucket struct {
	Month     string  `json:"month"`
	TotalDue  float64 `json:"totalDue"`
	TotalPaid float64 `json:"totalPaid"`
	Invoices  int64   `json:"invoices"`
}

// Outstanding summarizes unpaid balances across all time.
type Outstanding struct {
	Amount   float64 `json:"amount"`
	Invoices int64   `json:"invoices"`
}

// Dashboard is the whole report payload.
type Dashboard struct {
	From              time.Time         `json:"from"`
	To                time.Time         `json:"to"`
	Appointments      AppointmentCounts `json:"appointments"`
	RevenueByMonth    []RevenueBucket   `json:"revenue_by_month"`
	PaymentsProcessed float64           `json:"payments_processed"`
	Outstanding       Outstanding       `json:"outstanding"`
}

type Service interface {
	// Dashboard aggregates the reporting window, defaulting to
	// month-to-date when both bounds are zero.
	Dashboard(ctx context.Context, from, to time.Time) (*Dashboard, error)
}

type reportService struct {
	db *mongo.Database
}

func New(db *mongo.Database) Service {
	return &reportService{db: db}
}

func (s *reportService) Dashboard(ctx context.Context, from, to time.Time) (*Dashboard, error) {
	now := time.Now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	out := &Dashboard{From: from, To: to}

	appts, err := s.appointmentCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out.Appointments = appts

	revenue, err := s.revenueByMonth(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out.RevenueByMonth = revenue

	paid, err := s.paymentsProcessed(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out.PaymentsProcessed = paid

	outstanding, err := s.outstanding(ctx)
	if err != nil {
		return nil, err
	}
	out.Outstanding = outstanding

	return out, nil
}

func (s *reportService) appointmentCounts(ctx context.Context, from, to time.Time) (AppointmentCounts, error) {
	var counts AppointmentCounts

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"date": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.db.Collection(model.ColAppointments).Aggregate(ctx, pipeline)
	if err != nil {
		return counts, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return counts, err
	}

	for _, r := range rows {
		counts.Total += r.N
		switch r.Status {
		case model.AppointmentScheduled:
			counts.Scheduled = r.N
		case model.AppointmentCompleted:
			counts.Completed = r.N
		case model.AppointmentCancelledSameDay:
			counts.CancelledSameDay = r.N
		case model.AppointmentCancelledByPatient:
			counts.CancelledByPatient = r.N
		case model.AppointmentCancelledByTherapist:
			counts.CancelledByTherapist = r.N
		case model.AppointmentCancelled:
			counts.CancelledOther = r.N
		case model.AppointmentOther:
			counts.Other = r.N
		}
	}
	counts.Cancelled = counts.CancelledSameDay + counts.CancelledByPatient +
		counts.CancelledByTherapist + counts.CancelledOther
	return counts, nil
}

func (s *reportService) revenueByMonth(ctx context.Context, from, to time.Time) ([]RevenueBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"issue_date": bson.M{"$gte": from, "$lte": to},
			"status":     bson.M{"$ne": model.InvoiceVoid},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$issue_date"}},
			"totalDue":  bson.M{"$sum": "$total_due"},
			"totalPaid": bson.M{"$sum": "$total_paid"},
			"invoices":  bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.db.Collection(model.ColInvoices).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Month     string  `bson:"_id"`
		TotalDue  float64 `bson:"totalDue"`
		TotalPaid float64 `bson:"totalPaid"`
		Invoices  int64   `bson:"invoices"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	buckets := make([]RevenueBucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, RevenueBucket{
			Month:     r.Month,
			TotalDue:  r.TotalDue,
			TotalPaid: r.TotalPaid,
			Invoices:  r.Invoices,
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets, nil
}

func (s *reportService) paymentsProcessed(ctx context.Context, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"payment_date": bson.M{"$gte": from, "$lte": to},
			"status":       model.PaymentApplied,
		}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount_paid"}}}},
	}
	cur, err := s.db.Collection(model.ColPayments).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *reportService) outstanding(ctx context.Context) (Outstanding, error) {
	var out Outstanding

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"balance_due": bson.M{"$gt": 0},
			"status":      bson.M{"$ne": model.InvoiceVoid},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"amount": bson.M{"$sum": "$balance_due"},
			"n":      bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.db.Collection(model.ColInvoices).Aggregate(ctx, pipeline)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Amount float64 `bson:"amount"`
		N      int64   `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return out, err
	}
	if len(rows) > 0 {
		out.Amount = rows[0].Amount
		out.Invoices = rows[0].N
	}
	return out, nil
}
