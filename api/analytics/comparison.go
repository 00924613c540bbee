package analytics

import (
	"net/http"
	"time"

	"tavolo_server/handling"

	"github.com/MonkyMars/gecho"
)

func (arm *AnalyticsRoutesManager) GetSalesComparison(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	period, err := handling.ParseComparisonPeriod(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	comparison, err := arm.analyticsService.CompareSales(r.Context(), id, period, time.Now().UTC())
	if err != nil {
		handling.HandleError(err, "Failed to compare sales periods", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(comparison),
		gecho.Send(),
	)
}

func (arm *AnalyticsRoutesManager) GetOrderTypes(w http.ResponseWriter, r *http.Request) {
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

	breakdown, err := arm.analyticsService.OrderTypeBreakdown(r.Context(), id, dateRange.Start, dateRange.End)
	if err != nil {
		handling.HandleError(err, "Failed to compute order type breakdown", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(breakdown),
		gecho.Send(),
	)
}
