// Package mailer is the single seam for outbound transactional email: it
// consults per-patient opt-out, normalizes attachments, dispatches through
// the configured provider and records the outcome as a communication row.
package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/pkg/email"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
)

// SendRequest is one transactional email.
type SendRequest struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []email.Attachment

	// PatientID enables suppression and communication logging.
	PatientID *int64

	// Sender attribution for the communication row.
	Actor      *primitive.ObjectID
	EmployeeID *int64

	Metadata map[string]any
}

type Service interface {
	// Send runs the full gateway flow. The returned result always
	// describes the outcome; err is only set for caller mistakes
	// (invalid request), never for provider failures.
	Send(ctx context.Context, req SendRequest) (email.Result, error)

	// Branding loads the clinic identity for template builders.
	Branding(ctx context.Context) email.Branding

	// TemplateOverride returns the clinic-configured override for a
	// built-in template, or nil.
	TemplateOverride(ctx context.Context, name email.TemplateName) *email.Override

	// List pages through the communication log within the actor's
	// patient scope, newest first.
	List(ctx context.Context, actor access.Actor, req ListRequest) ([]View, int64, error)
}

type mailerService struct {
	client   *email.Client
	db       *mongo.Database
	counters counter.Service
	scope    access.Service
	codec    *fieldcrypt.Codec
	logger   *slog.Logger
}

func New(client *email.Client, db *mongo.Database, counters counter.Service, scope access.Service, codec *fieldcrypt.Codec, logger *slog.Logger) Service {
	return &mailerService{
		client:   client,
		db:       db,
		counters: counters,
		scope:    scope,
		codec:    codec,
		logger:   logger,
	}
}

func (s *mailerService) Send(ctx context.Context, req SendRequest) (email.Result, error) {
	if len(req.To) == 0 {
		return email.Result{}, email.ErrInvalidMessage{Reason: "at least one recipient is required"}
	}

	// Suppression check precedes everything else: a suppressed patient
	// must not cost a provider call or an attachment read.
	if req.PatientID != nil {
		var p model.Patient
		err := s.db.Collection(model.ColPatients).
			FindOne(ctx, bson.M{"patient_id": *req.PatientID}).Decode(&p)
		if err != nil && err != mongo.ErrNoDocuments {
			return email.Result{}, err
		}
		if err == nil && !p.EmailActive {
			res := email.Result{Status: email.StatusSuppressed, Simulated: true}
			s.logCommunication(ctx, req, res)
			return res, nil
		}
	}

	attachments, err := email.NormalizeAttachments(req.Attachments)
	if err != nil {
		res := email.Result{
			Status:       email.StatusFailed,
			Provider:     s.client.ProviderName(),
			ErrorMessage: err.Error(),
		}
		s.logCommunication(ctx, req, res)
		return res, nil
	}

	msg := email.Message{
		To:          req.To,
		Subject:     req.Subject,
		HTMLBody:    req.HTML,
		TextBody:    req.Text,
		Attachments: attachments,
	}

	res := email.Result{Provider: s.client.ProviderName()}
	providerID, err := s.client.Send(ctx, msg)
	switch {
	case err == nil && providerID != "":
		res.Status = email.StatusSent
		res.ProviderMessageID = providerID
	case err == nil:
		res.Status = email.StatusQueued
	default:
		res.Status = email.StatusFailed
		res.ErrorMessage = err.Error()
		var notConfigured email.ErrNotConfigured
		if errors.As(err, &notConfigured) {
			res.ErrorMessage = notConfigured.Error()
		}
		s.logger.Warn("email dispatch failed",
			slog.String("provider", res.Provider),
			slog.String("error", res.ErrorMessage),
		)
	}

	s.logCommunication(ctx, req, res)
	return res, nil
}

// logCommunication writes the outcome row. Failures here are logged and
// swallowed like audit failures: the email outcome already happened.
func (s *mailerService) logCommunication(ctx context.Context, req SendRequest, res email.Result) {
	if req.PatientID == nil {
		return
	}

	content := req.Text
	if content == "" {
		content = req.HTML
	}

	id, err := s.counters.Next(ctx, model.CounterCommunicationID, 1)
	if err != nil {
		s.logger.Error("communication id allocation failed", slog.String("error", err.Error()))
		return
	}

	meta := map[string]any{}
	for k, v := range req.Metadata {
		meta[k] = v
	}
	if res.ProviderMessageID != "" {
		meta["provider_message_id"] = res.ProviderMessageID
	}
	if res.ErrorMessage != "" {
		meta["error"] = res.ErrorMessage
	}
	if res.Provider != "" {
		meta["provider"] = res.Provider
	}

	enc := s.codec.Encryptor()
	now := time.Now().UTC()
	row := model.Communication{
		CommunicationID: id,
		PatientID:       *req.PatientID,
		EmployeeID:      req.EmployeeID,
		User:            req.Actor,
		Date:            &now,
		Type:            model.CommEmail,
		Subject:         enc.String(req.Subject),
		Content:         enc.String(content),
		DeliveryStatus:  deliveryStatus(res.Status),
		Metadata:        meta,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := enc.Err(); err != nil {
		s.logger.Error("communication encrypt failed", slog.String("error", err.Error()))
		return
	}

	if _, err := s.db.Collection(model.ColCommunications).InsertOne(ctx, row); err != nil {
		s.logger.Error("communication log failed", slog.String("error", err.Error()))
	}
}

func deliveryStatus(st email.Status) string {
	switch st {
	case email.StatusSent:
		return model.DeliverySent
	case email.StatusQueued:
		return model.DeliveryPending
	case email.StatusSuppressed:
		return model.DeliverySuppressed
	default:
		return model.DeliveryFailed
	}
}

func (s *mailerService) Branding(ctx context.Context) email.Branding {
	settings := s.loadSettings(ctx)
	if settings == nil {
		return email.Branding{}
	}
	out := email.Branding{PaymentInstructions: settings.PaymentInstructions}
	if b := settings.Branding; b != nil {
		out.ClinicName = b.ClinicName
		out.Phone = b.Phone
		out.Email = b.Email
	}
	return out
}

func (s *mailerService) TemplateOverride(ctx context.Context, name email.TemplateName) *email.Override {
	settings := s.loadSettings(ctx)
	tpl := settings.Template(string(name))
	if tpl == nil {
		return nil
	}
	return &email.Override{Subject: tpl.Subject, Body: tpl.Body}
}

func (s *mailerService) loadSettings(ctx context.Context) *model.ClinicSettings {
	var settings model.ClinicSettings
	err := s.db.Collection(model.ColClinicSettings).FindOne(ctx, bson.M{}).Decode(&settings)
	if err != nil {
		return nil
	}
	return &settings
}
