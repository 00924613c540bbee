package analytics

import (
	"net/http"

	"tavolo_server/handling"

	"github.com/MonkyMars/gecho"
)

func (arm *AnalyticsRoutesManager) GetRevenue(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	dateRange, err := handling.ParseDateRange(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	groupBy, err := handling.ParseGroupBy(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	result, err := arm.analyticsService.RevenueAnalytics(r.Context(), id, dateRange.Start, dateRange.End, groupBy)
	if err != nil {
		handling.HandleError(err, "Failed to compute revenue analytics", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(result),
		gecho.Send(),
	)
}

func (arm *AnalyticsRoutesManager) GetOrderVolume(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	dateRange, err := handling.ParseDateRange(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	groupBy, err := handling.ParseGroupBy(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	result, err := arm.analyticsService.OrderVolume(r.Context(), id, dateRange.Start, dateRange.End, groupBy)
	if err != nil {
		handling.HandleError(err, "Failed to compute order volume", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(result),
		gecho.Send(),
	)
}
