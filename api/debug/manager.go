package debug

import (
	"tavolo_server/config"
	"tavolo_server/services"

	"github.com/go-chi/chi/v5"
)

type DebugRoutesManager struct {
	cacheService *services.CacheService
}

func NewDebugRoutesManager(cacheService *services.CacheService) *DebugRoutesManager {
	return &DebugRoutesManager{
		cacheService: cacheService,
	}
}

func (drm *DebugRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/debug", func(r chi.Router) {
		// Invalidating a single restaurant's forecasts is safe enough to
		// expose everywhere; operators use it after bulk data imports.
		r.Delete("/cache/predictions/{restaurantID}", drm.InvalidatePredictions)

		if !config.IsProduction() {
			r.Post("/cache/clear", drm.ClearCache)
		}
	})
}
