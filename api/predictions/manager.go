package predictions

import (
	"net/http"

	"tavolo_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PredictionRoutesManager struct {
	logger                *gecho.Logger
	predictionService     *services.PredictionService
	recommendationService *services.RecommendationService
	preferenceService     *services.PreferenceService
}

func NewPredictionRoutesManager(
	logger *gecho.Logger,
	predictionService *services.PredictionService,
	recommendationService *services.RecommendationService,
	preferenceService *services.PreferenceService,
) *PredictionRoutesManager {
	return &PredictionRoutesManager{
		logger:                logger,
		predictionService:     predictionService,
		recommendationService: recommendationService,
		preferenceService:     preferenceService,
	}
}

func (prm *PredictionRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/predictions/{restaurantID}", func(r chi.Router) {
		r.Get("/demand", prm.GetDemandForecast)
		r.Get("/recommendations", prm.GetRecommendations)
		r.Get("/preferences", prm.GetCustomerPreferences)
	})
}

func restaurantID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func badRestaurantID(w http.ResponseWriter) {
	gecho.BadRequest(w,
		gecho.WithMessage("error.predictions.invalidRestaurantId"),
		gecho.Send(),
	)
}
