package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/database"
	"github.com/bridgesphysio/bridges_backend/pkg/email"
	"github.com/bridgesphysio/bridges_backend/pkg/fieldcrypt"
	"github.com/bridgesphysio/bridges_backend/pkg/logs"
	"github.com/bridgesphysio/bridges_backend/pkg/observability"
	"github.com/bridgesphysio/bridges_backend/pkg/pdf"
	redispkg "github.com/bridgesphysio/bridges_backend/pkg/redis"
	"github.com/bridgesphysio/bridges_backend/pkg/token"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideMongo),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideFieldCodec),
	fx.Provide(ProvideTokenManager),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvidePDFRenderer),
	fx.Provide(ProvideOTel),
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := logs.New(cfg)
	slog.SetDefault(logger)
	return logger
}

func ProvideMongo(lc fx.Lifecycle, cfg *config.Config) (*mongo.Database, error) {
	client, db, err := database.Connect(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing mongo connection")
			return client.Disconnect(ctx)
		},
	})
	return db, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization() (authorize.IAuthorization, error) {
	return authorize.NewAuthorization()
}

func ProvideFieldCodec(cfg *config.Config) (*fieldcrypt.Codec, error) {
	return fieldcrypt.NewFromHex(cfg.Encryption.MasterKey)
}

func ProvideTokenManager(cfg *config.Config) (*token.Manager, error) {
	return token.NewManager(token.Config{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTokenTTL(),
		RefreshTTL:    cfg.Auth.RefreshTokenTTL(),
		Issuer:        cfg.Auth.TOTPIssuer,
	})
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvidePDFRenderer(cfg *config.Config) *pdf.Renderer {
	return pdf.New(cfg.PDF)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Observability.Tracing.OTLPEndpoint,
		OTLPInsecure:   cfg.Observability.Tracing.OTLPInsecure,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
