package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/handler"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/service/appointment"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/auth"
	"github.com/bridgesphysio/bridges_backend/internal/service/catalogue"
	"github.com/bridgesphysio/bridges_backend/internal/service/datarequest"
	"github.com/bridgesphysio/bridges_backend/internal/service/invoice"
	"github.com/bridgesphysio/bridges_backend/internal/service/mailer"
	"github.com/bridgesphysio/bridges_backend/internal/service/note"
	"github.com/bridgesphysio/bridges_backend/internal/service/patient"
	"github.com/bridgesphysio/bridges_backend/internal/service/payment"
	"github.com/bridgesphysio/bridges_backend/internal/service/profitloss"
	"github.com/bridgesphysio/bridges_backend/internal/service/receipt"
	"github.com/bridgesphysio/bridges_backend/internal/service/report"
	"github.com/bridgesphysio/bridges_backend/internal/service/settings"
	"github.com/bridgesphysio/bridges_backend/internal/service/user"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/token"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg   *config.Config
	Redis *redis.Client
	DB    *mongo.Database
	Auth  authorize.IAuthorization
	Token *token.Manager

	AuthSvc        auth.Service
	UserSvc        user.Service
	PatientSvc     patient.Service
	AppointmentSvc appointment.Service
	InvoiceSvc     invoice.Service
	PaymentSvc     payment.Service
	ReceiptSvc     receipt.Service
	NoteSvc        note.Service
	MailerSvc      mailer.Service
	CatalogueSvc   catalogue.Service
	SettingsSvc    settings.Service
	ReportSvc      report.Service
	DataRequestSvc datarequest.Service
	ProfitLossSvc  profitloss.Service
	AuditSvc       audit.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	authRequired := middleware.AuthRequired(r.p.Token)
	authLimiter := middleware.NewAuthLimiter(r.p.Redis)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	authH := handler.NewAuthHandler(r.p.AuthSvc, r.p.Cfg)
	userH := handler.NewUserHandler(r.p.UserSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	invoiceH := handler.NewInvoiceHandler(r.p.InvoiceSvc, r.p.PaymentSvc)
	paymentH := handler.NewPaymentHandler(r.p.PaymentSvc)
	receiptH := handler.NewReceiptHandler(r.p.ReceiptSvc)
	noteH := handler.NewNoteHandler(r.p.NoteSvc)
	commH := handler.NewCommunicationHandler(r.p.MailerSvc)
	catalogueH := handler.NewCatalogueHandler(r.p.CatalogueSvc)
	settingsH := handler.NewSettingsHandler(r.p.SettingsSvc)
	reportH := handler.NewReportHandler(r.p.ReportSvc)
	dataRequestH := handler.NewDataRequestHandler(r.p.DataRequestSvc)
	profitLossH := handler.NewProfitLossHandler(r.p.ProfitLossSvc)
	auditH := handler.NewAuditHandler(r.p.AuditSvc)

	r.registerAuthRoutes(app, authH, authRequired, authLimiter)

	api := app.Group("/api/v1", authRequired)

	r.registerUserRoutes(api, userH, requirePerm)
	r.registerPatientRoutes(api, patientH, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, catalogueH, requirePerm)
	r.registerInvoiceRoutes(api, invoiceH, requirePerm)
	r.registerPaymentRoutes(api, paymentH, requirePerm)
	r.registerReceiptRoutes(api, receiptH, requirePerm)
	r.registerNoteRoutes(api, noteH, requirePerm)
	r.registerCommunicationRoutes(api, commH, requirePerm)
	r.registerCatalogueRoutes(api, catalogueH, requirePerm)
	r.registerSettingsRoutes(api, settingsH, requirePerm)
	r.registerReportRoutes(api, reportH, requirePerm)
	r.registerDataRequestRoutes(api, dataRequestH, requirePerm)
	r.registerProfitLossRoutes(api, profitLossH, requirePerm)
	r.registerAuditRoutes(api, auditH)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			return r.p.DB.Client().Ping(ctx, nil) == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
