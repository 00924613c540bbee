package analytics

import (
	"net/http"

	"tavolo_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AnalyticsRoutesManager struct {
	logger           *gecho.Logger
	analyticsService *services.AnalyticsService
}

func NewAnalyticsRoutesManager(logger *gecho.Logger, analyticsService *services.AnalyticsService) *AnalyticsRoutesManager {
	return &AnalyticsRoutesManager{
		logger:           logger,
		analyticsService: analyticsService,
	}
}

func (arm *AnalyticsRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/analytics/{restaurantID}", func(r chi.Router) {
		r.Get("/revenue", arm.GetRevenue)
		r.Get("/popular-items", arm.GetPopularItems)
		r.Get("/day-patterns", arm.GetDayPatterns)
		r.Get("/order-volume", arm.GetOrderVolume)
		r.Get("/category-performance", arm.GetCategoryPerformance)
		r.Get("/peak-hours", arm.GetPeakHours)
		r.Get("/sales-comparison", arm.GetSalesComparison)
		r.Get("/top-performers", arm.GetTopPerformers)
		r.Get("/order-types", arm.GetOrderTypes)
		r.Get("/customer-behavior", arm.GetCustomerBehavior)
	})
}

// restaurantID extracts and validates the restaurant id path parameter.
func restaurantID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func badRestaurantID(w http.ResponseWriter) {
	gecho.BadRequest(w,
		gecho.WithMessage("error.analytics.invalidRestaurantId"),
		gecho.Send(),
	)
}
