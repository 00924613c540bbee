package predictions

import (
	"net/http"

	"tavolo_server/handling"

	"github.com/MonkyMars/gecho"
)

func (prm *PredictionRoutesManager) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	customer := r.URL.Query().Get("customer")
	if customer == "" {
		gecho.BadRequest(w,
			gecho.WithMessage("error.predictions.customerRequired"),
			gecho.Send(),
		)
		return
	}

	limit, err := handling.ParseLimit(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	recommendations, err := prm.recommendationService.Recommendations(r.Context(), id, customer, limit)
	if err != nil {
		handling.HandleError(err, "Failed to compute recommendations", prm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"customer":        customer,
			"recommendations": recommendations,
		}),
		gecho.Send(),
	)
}

func (prm *PredictionRoutesManager) GetCustomerPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	customer := r.URL.Query().Get("customer")
	if customer == "" {
		gecho.BadRequest(w,
			gecho.WithMessage("error.predictions.customerRequired"),
			gecho.Send(),
		)
		return
	}

	limit, err := handling.ParseLimit(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	preferences, err := prm.preferenceService.CustomerPreferences(r.Context(), id, customer, limit)
	if err != nil {
		handling.HandleError(err, "Failed to load customer preferences", prm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"customer":    customer,
			"preferences": preferences,
		}),
		gecho.Send(),
	)
}
