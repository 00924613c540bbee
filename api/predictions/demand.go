package predictions

import (
	"errors"
	"net/http"
	"time"

	"tavolo_server/api/health"
	"tavolo_server/handling"
	"tavolo_server/lib"

	"github.com/MonkyMars/gecho"
)

func (prm *PredictionRoutesManager) GetDemandForecast(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	period := handling.ParsePredictionPeriod(r)

	start := time.Now()
	forecast, err := prm.predictionService.DemandForecast(r.Context(), id, period)
	if err != nil {
		var insufficient *lib.InsufficientHistoryError
		switch {
		case errors.Is(err, lib.ErrInvalidPeriod):
			gecho.BadRequest(w,
				gecho.WithMessage(err.Error()),
				gecho.Send(),
			)
		case errors.As(err, &insufficient):
			// Enough detail for the caller to explain the wait to an end
			// user; retrying will not help until more history accrues.
			gecho.BadRequest(w,
				gecho.WithMessage("error.predictions.insufficientHistory"),
				gecho.WithData(map[string]any{
					"required_days":  insufficient.RequiredDays,
					"available_days": insufficient.AvailableDays,
					"reason":         insufficient.Reason,
				}),
				gecho.Send(),
			)
		case errors.Is(err, lib.ErrDataUnavailable):
			gecho.ServiceUnavailable(w,
				gecho.WithMessage("error.predictions.dataUnavailable"),
				gecho.Send(),
			)
		default:
			handling.HandleError(err, "Failed to compute demand forecast", prm.logger, w)
		}
		return
	}

	if !forecast.Cached {
		health.ForecastTrainingDuration.
			WithLabelValues(string(period)).
			Observe(time.Since(start).Seconds())
	}

	gecho.Success(w,
		gecho.WithData(forecast),
		gecho.Send(),
	)
}
