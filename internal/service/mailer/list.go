package mailer

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
)

// ListRequest filters the communication log.
type ListRequest struct {
	PatientID *int64
	Type      string
	Status    string
	From      time.Time
	To        time.Time
	Page      int
	PerPage   int
}

// View is one communication row with the encrypted fields opened.
type View struct {
	CommunicationID int64          `json:"communication_id"`
	PatientID       int64          `json:"patient_id"`
	EmployeeID      *int64         `json:"employee_id,omitempty"`
	Date            *time.Time     `json:"date,omitempty"`
	Type            string         `json:"type"`
	Subject         string         `json:"subject,omitempty"`
	Content         string         `json:"content"`
	DeliveryStatus  string         `json:"delivery_status,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (s *mailerService) List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error) {
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
	if req.Type != "" {
		base["type"] = req.Type
	}
	if req.Status != "" {
		base["delivery_status"] = req.Status
	}
	if !req.From.IsZero() || !req.To.IsZero() {
		rng := bson.M{}
		if !req.From.IsZero() {
			rng["$gte"] = req.From
		}
		if !req.To.IsZero() {
			rng["$lt"] = req.To
		}
		base["date"] = rng
	}

	filter, err := s.scope.DerivedFilter(ctx, actor, base)
	if err != nil {
		return nil, 0, err
	}

	col := s.db.Collection(model.ColCommunications)
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"date": -1}).
		SetSkip(int64((req.Page - 1) * req.PerPage)).
		SetLimit(int64(req.PerPage))
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []model.Communication
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, View{
			CommunicationID: row.CommunicationID,
			PatientID:       row.PatientID,
			EmployeeID:      row.EmployeeID,
			Date:            row.Date,
			Type:            row.Type,
			Subject:         s.codec.DecryptString(row.Subject),
			Content:         s.codec.DecryptString(row.Content),
			DeliveryStatus:  row.DeliveryStatus,
			Metadata:        row.Metadata,
			CreatedAt:       row.CreatedAt,
		})
	}
	return out, total, nil
}
