package analytics

import (
	"net/http"
	"time"

	"tavolo_server/handling"

	"github.com/MonkyMars/gecho"
)

func (arm *AnalyticsRoutesManager) GetCustomerBehavior(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	days, err := handling.ParseDays(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	behavior, err := arm.analyticsService.CustomerBehavior(r.Context(), id, start, end)
	if err != nil {
		handling.HandleError(err, "Failed to compute customer behavior", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(behavior),
		gecho.Send(),
	)
}
