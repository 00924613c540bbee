package debug

import (
	"net/http"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (drm *DebugRoutesManager) InvalidatePredictions(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage("error.cache.invalidRestaurantId"),
			gecho.Send(),
		)
		return
	}

	if err := drm.cacheService.InvalidatePredictions(restaurantID); err != nil {
		gecho.InternalServerError(w,
			gecho.WithMessage("error.cache.invalidationFailed"),
			gecho.Send(),
		)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.cache.predictionsInvalidated"),
		gecho.Send(),
	)
}

func (drm *DebugRoutesManager) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := drm.cacheService.ClearAll(); err != nil {
		gecho.InternalServerError(w,
			gecho.WithMessage("error.cache.clearFailed"),
			gecho.Send(),
		)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("success.cache.cleared"),
		gecho.Send(),
	)
}
