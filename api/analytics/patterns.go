package analytics

import (
	"net/http"
	"time"

	"tavolo_server/handling"

	"github.com/MonkyMars/gecho"
)

func (arm *AnalyticsRoutesManager) GetDayPatterns(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(r)
	if !ok {
		badRestaurantID(w)
		return
	}

	weeks, err := handling.ParseWeeks(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7*weeks)

	patterns, err := arm.analyticsService.DayOfWeekPatterns(r.Context(), id, start, end)
	if err != nil {
		handling.HandleError(err, "Failed to compute day of week patterns", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"weeks_analyzed": weeks,
			"patterns":       patterns,
		}),
		gecho.Send(),
	)
}

func (arm *AnalyticsRoutesManager) GetPeakHours(w http.ResponseWriter, r *http.Request) {
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

	peakHours, err := arm.analyticsService.PeakHours(r.Context(), id, dateRange.Start, dateRange.End)
	if err != nil {
		handling.HandleError(err, "Failed to compute peak hours", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(peakHours),
		gecho.Send(),
	)
}
