package app

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/internal/service/access"
	"github.com/bridgesphysio/bridges_backend/internal/service/appointment"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/internal/service/auth"
	"github.com/bridgesphysio/bridges_backend/internal/service/catalogue"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
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
	"github.com/bridgesphysio/bridges_backend/pkg/email"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
	"github.com/bridgesphysio/bridges_backend/pkg/pdf"
	"github.com/bridgesphysio/bridges_backend/pkg/token"
)

// ServiceModule provides all domain services.
var ServiceModule = fx.Module("services",
	fx.Provide(ProvideCounterService),
	fx.Provide(ProvideAuditService),
	fx.Provide(ProvideAccessService),
	fx.Provide(ProvideMailerService),
	fx.Provide(ProvideAuthService),
	fx.Provide(ProvideUserService),
	fx.Provide(ProvidePatientService),
	fx.Provide(ProvideInvoiceService),
	fx.Provide(ProvideReceiptService),
	fx.Provide(ProvideProfitLossService),
	fx.Provide(ProvidePaymentService),
	fx.Provide(ProvideAppointmentService),
	fx.Provide(ProvideNoteService),
	fx.Provide(ProvideCatalogueService),
	fx.Provide(ProvideSettingsService),
	fx.Provide(ProvideReportService),
	fx.Provide(ProvideDataRequestService),
)

func ProvideCounterService(db *mongo.Database) counter.Service {
	return counter.New(db)
}

func ProvideAuditService(db *mongo.Database, logger *slog.Logger) audit.Service {
	return audit.New(db, logger)
}

func ProvideAccessService(db *mongo.Database) access.Service {
	return access.New(db)
}

func ProvideMailerService(client *email.Client, db *mongo.Database, counters counter.Service, scope access.Service, codec *fieldcrypt.Codec, logger *slog.Logger) mailer.Service {
	return mailer.New(client, db, counters, scope, codec, logger)
}

func ProvideAuthService(
	db *mongo.Database,
	tokens *token.Manager,
	counters counter.Service,
	auditor audit.Service,
	mail mailer.Service,
	codec *fieldcrypt.Codec,
	cfg *config.Config,
) auth.Service {
	return auth.New(db, tokens, counters, auditor, mail, codec, cfg.Auth, cfg.URLs)
}

func ProvideUserService(db *mongo.Database, auditor audit.Service, cfg *config.Config) user.Service {
	return user.New(db, auditor, cfg.Auth.BcryptCost)
}

func ProvidePatientService(db *mongo.Database, counters counter.Service, auditor audit.Service, scope access.Service, codec *fieldcrypt.Codec) patient.Service {
	return patient.New(db, counters, auditor, scope, codec)
}

func ProvideInvoiceService(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	mail mailer.Service,
	renderer *pdf.Renderer,
	codec *fieldcrypt.Codec,
) invoice.Service {
	return invoice.New(db, counters, auditor, scope, mail, renderer, codec)
}

func ProvideReceiptService(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	mail mailer.Service,
	renderer *pdf.Renderer,
	codec *fieldcrypt.Codec,
) receipt.Service {
	return receipt.New(db, counters, auditor, scope, mail, renderer, codec)
}

func ProvideProfitLossService(db *mongo.Database, counters counter.Service, auditor audit.Service) profitloss.Service {
	return profitloss.New(db, counters, auditor)
}

func ProvidePaymentService(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	invoices invoice.Service,
	receipts receipt.Service,
	ledger profitloss.Service,
	codec *fieldcrypt.Codec,
) payment.Service {
	return payment.New(db, counters, auditor, scope, invoices, receipts, ledger, codec)
}

func ProvideAppointmentService(
	db *mongo.Database,
	counters counter.Service,
	auditor audit.Service,
	scope access.Service,
	invoices invoice.Service,
	mail mailer.Service,
	codec *fieldcrypt.Codec,
) appointment.Service {
	return appointment.New(db, counters, auditor, scope, invoices, mail, codec)
}

func ProvideNoteService(db *mongo.Database, auditor audit.Service, scope access.Service, codec *fieldcrypt.Codec) note.Service {
	return note.New(db, auditor, scope, codec)
}

func ProvideCatalogueService(db *mongo.Database, counters counter.Service, auditor audit.Service) catalogue.Service {
	return catalogue.New(db, counters, auditor)
}

func ProvideSettingsService(db *mongo.Database, auditor audit.Service, mail mailer.Service) settings.Service {
	return settings.New(db, auditor, mail)
}

func ProvideReportService(db *mongo.Database) report.Service {
	return report.New(db)
}

func ProvideDataRequestService(db *mongo.Database, counters counter.Service, auditor audit.Service) datarequest.Service {
	return datarequest.New(db, counters, auditor)
}
