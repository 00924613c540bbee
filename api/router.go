package api

import (
	"net/http"

	"tavolo_server/api/analytics"
	"tavolo_server/api/debug"
	"tavolo_server/api/health"
	"tavolo_server/api/middleware"
	"tavolo_server/api/orders"
	"tavolo_server/api/predictions"
	"tavolo_server/config"
	"tavolo_server/database"
	"tavolo_server/forecast"
	"tavolo_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	chiware "github.com/go-chi/chi/v5/middleware"
)

func App(engine forecast.Engine) chi.Router {
	r := chi.NewRouter()

	// create loggers
	logLevel := gecho.ParseLogLevel(config.GetLogLevel())
	mwLogger := gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(false), gecho.WithLogLevel(logLevel)))
	standardLogger := gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(true), gecho.WithLogLevel(logLevel)))

	// db
	db := database.GetInstance()

	// config
	cfg := config.GetConfig()

	// Services
	sm := services.NewServiceManager(standardLogger, cfg, db, engine)

	// Initialize middleware
	mw := middleware.NewMiddleware(cfg, mwLogger, sm.CacheService)

	// Core infra
	r.Use(chiware.RequestID)
	r.Use(chiware.RealIP)
	r.Use(chiware.Recoverer)

	// Limits & security
	r.Use(mw.BodyLimit(10 * 1024 * 1024))
	r.Use(mw.SecurityHeaders())

	// Observability
	r.Use(gecho.Handlers.CreateLoggingMiddleware(mwLogger))
	r.Use(middleware.MetricsMiddleware)

	// CORS (must be before rate limiting so preflights pass through)
	r.Use(mw.SetupCORS().Handler)

	// Rate limiting
	r.Use(mw.RateLimitMiddleware())

	// Register all routes
	NewRouterManager(
		analytics.NewAnalyticsRoutesManager(standardLogger, sm.AnalyticsService),
		predictions.NewPredictionRoutesManager(standardLogger, sm.PredictionService, sm.RecommendationService, sm.PreferenceService),
		orders.NewOrderRoutesManager(standardLogger, sm.OrderService),
		health.NewHealthRoutesManager(sm.HealthService),
		debug.NewDebugRoutesManager(sm.CacheService),
	).RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gecho.Success(w,
			gecho.WithMessage("Welcome to the Tavolo API"),
			gecho.Send(),
		)
	})

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		gecho.NotFound(w,
			gecho.Send(),
		)
	})

	return r
}
