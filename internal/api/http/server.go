package http

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/middleware"
	"github.com/bridgesphysio/bridges_backend/internal/api/http/router"
	"github.com/bridgesphysio/bridges_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := fiber.New()

	if p.OTel != nil && p.Cfg.Observability.Tracing.Enabled {
		app.Use(observability.FiberMiddleware(p.Cfg.Observability.ServiceName))
	}

	configureGlobalMiddleware(app, p.Cfg, p.Redis)

	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf("%s:%d", p.Cfg.Server.Host, p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.Server.EnforceHTTPS {
		app.Use(middleware.EnforceHTTPS())
	}

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
		if cfg.Server.CORS.Enabled {
			app.Use(cors.New(corsConfig(cfg.Server.CORS)))
		}
		app.Use(middleware.NewLimiterWithRedis(rdb))
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:request_id}] ${method} ${url} ${status}\n",
	}))
}

// corsConfig allows exact origins plus regex patterns for preview deploys.
func corsConfig(c config.CORSConfig) cors.Config {
	out := cors.Config{AllowOrigins: c.AllowOrigins}
	if len(c.OriginPatterns) == 0 {
		return out
	}

	patterns := make([]*regexp.Regexp, 0, len(c.OriginPatterns))
	for _, p := range c.OriginPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("ignoring invalid CORS origin pattern", "pattern", p, "error", err)
			continue
		}
		patterns = append(patterns, re)
	}
	out.AllowOriginsFunc = func(origin string) bool {
		for _, re := range patterns {
			if re.MatchString(origin) {
				return true
			}
		}
		return false
	}
	return out
}
