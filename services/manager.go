package services

import (
	"tavolo_server/database"
	"tavolo_server/forecast"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	CacheService          *CacheService
	HealthService         *HealthService
	AnalyticsService      *AnalyticsService
	PreferenceService     *PreferenceService
	PredictionService     *PredictionService
	RecommendationService *RecommendationService
	OrderService          *OrderService
}

func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, db *database.DB, engine forecast.Engine) *ServiceManager {
	cacheService := NewCacheService(logger, cfg)
	healthService := NewHealthService(logger, db, cacheService)
	analyticsService := NewAnalyticsService(logger, db)
	preferenceService := NewPreferenceService(logger, db)
	predictionService := NewPredictionService(logger, db, cacheService, engine, cfg.Prediction.MinTrainingPoints)
	recommendationService := NewRecommendationService(logger, db)
	orderService := NewOrderService(logger, cfg, db, preferenceService)

	return &ServiceManager{
		CacheService:          cacheService,
		HealthService:         healthService,
		AnalyticsService:      analyticsService,
		PreferenceService:     preferenceService,
		PredictionService:     predictionService,
		RecommendationService: recommendationService,
		OrderService:          orderService,
	}
}
