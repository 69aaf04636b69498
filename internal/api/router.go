package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/logbook/logbook-service/docs"
	"github.com/logbook/logbook-service/internal/api/handler"
	"github.com/logbook/logbook-service/internal/api/middleware"
	"github.com/logbook/logbook-service/internal/core/ports"
	"github.com/logbook/logbook-service/internal/infrastructure/http/handlers"
)

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Accounts       ports.AccountService
	Entries        ports.EntryService
	Tokens         ports.TokenIssuer
	Readiness      map[string]handlers.Checker
	RequestTimeout time.Duration
	Log            zerolog.Logger

	// Blobs, when set, serves attachment bytes under /blobs/:ref.
	Blobs handlers.BlobReader

	// Registry receives the HTTP metrics and serves /metrics. Nil means the
	// process-wide default registry, which also holds the domain metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "logbook",
		Registerer: registerer(deps.Registry),
	}))
	if deps.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeoutWithConfig(echomiddleware.ContextTimeoutConfig{
			Timeout: deps.RequestTimeout,
		}))
	}

	// --- RPC ---
	dispatcher := handler.NewDispatcher(deps.Accounts, deps.Entries, deps.Log)
	e.POST("/rpc", dispatcher.Handle, middleware.Session(deps.Tokens, deps.Log))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer(deps.Registry),
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if deps.Blobs != nil {
		e.GET("/blobs/:ref", handlers.NewBlobHandler(deps.Blobs).Serve)
	}

	return e
}

// requestLogger writes one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return prometheus.DefaultRegisterer
	}
	return reg
}

func gatherer(reg *prometheus.Registry) prometheus.Gatherer {
	if reg == nil {
		return prometheus.DefaultGatherer
	}
	return reg
}
