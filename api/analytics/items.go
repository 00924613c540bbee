package analytics

import (
	"net/http"
	"time"

	"tavolo_server/handling"

	"github.com/MonkyMars/gecho"
)

func (arm *AnalyticsRoutesManager) GetPopularItems(w http.ResponseWriter, r *http.Request) {
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

	limit, err := handling.ParseLimit(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	items, err := arm.analyticsService.PopularItems(r.Context(), id, days, limit, time.Now().UTC())
	if err != nil {
		handling.HandleError(err, "Failed to compute popular items", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"days_analyzed": days,
			"items":         items,
		}),
		gecho.Send(),
	)
}

func (arm *AnalyticsRoutesManager) GetTopPerformers(w http.ResponseWriter, r *http.Request) {
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

	rankBy, err := handling.ParseRankBy(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
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

	performers, err := arm.analyticsService.TopPerformers(r.Context(), id, dateRange.Start, dateRange.End, rankBy, limit)
	if err != nil {
		handling.HandleError(err, "Failed to compute top performers", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(performers),
		gecho.Send(),
	)
}

func (arm *AnalyticsRoutesManager) GetCategoryPerformance(w http.ResponseWriter, r *http.Request) {
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

	categories, err := arm.analyticsService.CategoryPerformance(r.Context(), id, dateRange.Start, dateRange.End)
	if err != nil {
		handling.HandleError(err, "Failed to compute category performance", arm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(categories),
		gecho.Send(),
	)
}
