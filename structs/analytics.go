package structs

import (
	"time"

	"github.com/google/uuid"
)

// Trend classifies an item's recent sales trajectory relative to the prior
// comparable window.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
	TrendNew    Trend = "new"
)

type RevenuePeriod struct {
	Period        string  `json:"period"`
	TotalRevenue  float64 `json:"total_revenue"`
	OrderCount    int     `json:"order_count"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

type RevenueAnalytics struct {
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	GroupBy              string          `json:"group_by"`
	Metrics              []RevenuePeriod `json:"metrics"`
	TotalRevenue         float64         `json:"total_revenue"`
	TotalOrders          int             `json:"total_orders"`
	OverallAvgOrderValue float64         `json:"overall_avg_order_value"`
}

type PopularItem struct {
	MenuItemId      uuid.UUID `json:"menu_item_id"`
	ItemName        string    `json:"item_name"`
	OrderCount      int       `json:"order_count"`
	QuantitySold    int       `json:"quantity_sold"`
	Revenue         float64   `json:"revenue"`
	AvgPrice        float64   `json:"avg_price"`
	Trend           Trend     `json:"trend"`
	TrendPercentage *float64  `json:"trend_percentage"`
}

type DayPattern struct {
	DayOfWeek    string   `json:"day_of_week"`
	DayNumber    int      `json:"day_number"` // 0 = Sunday
	AvgOrders    float64  `json:"avg_orders"`
	AvgRevenue   float64  `json:"avg_revenue"`
	PopularItems []string `json:"popular_items"`
}

type VolumePeriod struct {
	Period        string   `json:"period"`
	OrderCount    int      `json:"order_count"`
	AvgOrderValue float64  `json:"avg_order_value"`
	GrowthRate    *float64 `json:"growth_rate"` // nil for the first period or when the previous one is zero
}

type OrderVolume struct {
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	GroupBy   string         `json:"group_by"`
	Metrics   []VolumePeriod `json:"metrics"`
}

type CategoryPerformance struct {
	Category   string  `json:"category"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"order_count"`
	AvgPrice   float64 `json:"avg_price"`
}

type HourMetric struct {
	Hour       int     `json:"hour"`
	AvgOrders  float64 `json:"avg_orders"`
	AvgRevenue float64 `json:"avg_revenue"`
}

type PeakHours struct {
	StartDate     time.Time    `json:"start_date"`
	EndDate       time.Time    `json:"end_date"`
	HourlyMetrics []HourMetric `json:"hourly_metrics"`
	BusiestHour   int          `json:"busiest_hour"`
	SlowestHour   int          `json:"slowest_hour"`
}

type SalesComparison struct {
	Period                   string  `json:"period"`
	CurrentRevenue           float64 `json:"current_revenue"`
	PreviousRevenue          float64 `json:"previous_revenue"`
	CurrentOrders            int     `json:"current_orders"`
	PreviousOrders           int     `json:"previous_orders"`
	CurrentAvgOrderValue     float64 `json:"current_avg_order_value"`
	PreviousAvgOrderValue    float64 `json:"previous_avg_order_value"`
	RevenueGrowthPercentage  float64 `json:"revenue_growth_percentage"`
	OrdersGrowthPercentage   float64 `json:"orders_growth_percentage"`
}

type TopPerformer struct {
	Rank         int       `json:"rank"`
	MenuItemId   uuid.UUID `json:"menu_item_id"`
	ItemName     string    `json:"item_name"`
	Category     string    `json:"category"`
	Revenue      float64   `json:"revenue"`
	QuantitySold int       `json:"quantity_sold"`
	OrderCount   int       `json:"order_count"`
}

type OrderTypeBreakdown struct {
	OrderType         string  `json:"order_type"`
	Revenue           float64 `json:"revenue"`
	OrderCount        int     `json:"order_count"`
	AvgOrderValue     float64 `json:"avg_order_value"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

type CustomerBehavior struct {
	NewCustomers             int     `json:"new_customers"`
	ReturningCustomers       int     `json:"returning_customers"`
	RepeatRate               float64 `json:"repeat_rate"`
	AvgOrdersPerCustomer     float64 `json:"avg_orders_per_customer"`
	AvgCustomerLifetimeValue float64 `json:"avg_customer_lifetime_value"`
}
