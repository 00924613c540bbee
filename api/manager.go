package api

import (
	"tavolo_server/api/analytics"
	"tavolo_server/api/debug"
	"tavolo_server/api/health"
	"tavolo_server/api/orders"
	"tavolo_server/api/predictions"

	"github.com/go-chi/chi/v5"
)

type routerManager struct {
	analyticsRoutes  *analytics.AnalyticsRoutesManager
	predictionRoutes *predictions.PredictionRoutesManager
	orderRoutes      *orders.OrderRoutesManager
	healthRoutes     *health.HealthRoutesManager
	debugRoutes      *debug.DebugRoutesManager
}

func NewRouterManager(
	analyticsRoutes *analytics.AnalyticsRoutesManager,
	predictionRoutes *predictions.PredictionRoutesManager,
	orderRoutes *orders.OrderRoutesManager,
	healthRoutes *health.HealthRoutesManager,
	debugRoutes *debug.DebugRoutesManager,
) *routerManager {
	return &routerManager{
		analyticsRoutes:  analyticsRoutes,
		predictionRoutes: predictionRoutes,
		orderRoutes:      orderRoutes,
		healthRoutes:     healthRoutes,
		debugRoutes:      debugRoutes,
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	rm.analyticsRoutes.RegisterRoutes(r)
	rm.predictionRoutes.RegisterRoutes(r)
	rm.orderRoutes.RegisterRoutes(r)
	rm.healthRoutes.RegisterRoutes(r)
	rm.debugRoutes.RegisterRoutes(r)
}
