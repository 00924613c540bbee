package services

import (
	"context"
	"fmt"
	"time"

	"tavolo_server/database"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// AnalyticsService computes sales analytics over non-cancelled orders. The
// SQL rollups live in the store; this layer derives trends, growth rates
// and period labels so the logic stays testable without a database.
type AnalyticsService struct {
	logger *gecho.Logger
	store  analyticsStore
}

func NewAnalyticsService(logger *gecho.Logger, db *database.DB) *AnalyticsService {
	return &AnalyticsService{
		logger: logger,
		store:  newPgAnalyticsStore(db),
	}
}

func newAnalyticsServiceWithStore(logger *gecho.Logger, store analyticsStore) *AnalyticsService {
	return &AnalyticsService{logger: logger, store: store}
}

// truncUnit maps a validated group_by value to a date_trunc unit.
func truncUnit(groupBy string) string {
	switch groupBy {
	case "hourly":
		return "hour"
	case "weekly":
		return "week"
	case "monthly":
		return "month"
	default:
		return "day"
	}
}

// periodLabel formats a bucket timestamp for the given grouping.
func periodLabel(bucket time.Time, groupBy string) string {
	switch groupBy {
	case "hourly":
		return bucket.Format("2006-01-02T15:00")
	case "weekly":
		year, week := bucket.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "monthly":
		return bucket.Format("2006-01")
	default:
		return bucket.Format("2006-01-02")
	}
}

// RevenueAnalytics returns revenue grouped into time buckets plus totals
// across the whole range.
func (s *AnalyticsService) RevenueAnalytics(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, groupBy string) (*structs.RevenueAnalytics, error) {
	rows, err := s.store.RevenuePeriods(ctx, restaurantID, start, end, truncUnit(groupBy))
	if err != nil {
		return nil, fmt.Errorf("revenue analytics query failed: %w", err)
	}

	result := &structs.RevenueAnalytics{
		StartDate: start,
		EndDate:   end,
		GroupBy:   groupBy,
		Metrics:   make([]structs.RevenuePeriod, 0, len(rows)),
	}

	for _, row := range rows {
		avg := 0.0
		if row.OrderCount > 0 {
			avg = row.Revenue / float64(row.OrderCount)
		}

		result.Metrics = append(result.Metrics, structs.RevenuePeriod{
			Period:        periodLabel(row.Bucket, groupBy),
			TotalRevenue:  row.Revenue,
			OrderCount:    row.OrderCount,
			AvgOrderValue: avg,
		})

		result.TotalRevenue += row.Revenue
		result.TotalOrders += row.OrderCount
	}

	if result.TotalOrders > 0 {
		result.OverallAvgOrderValue = result.TotalRevenue / float64(result.TotalOrders)
	}

	return result, nil
}

// PopularItems returns the best selling items over the trailing window,
// each classified against the window's earlier half.
func (s *AnalyticsService) PopularItems(ctx context.Context, restaurantID uuid.UUID, days, limit int, now time.Time) ([]structs.PopularItem, error) {
	start := now.AddDate(0, 0, -days)
	previousEnd := now.AddDate(0, 0, -days/2)

	rows, err := s.store.ItemSales(ctx, restaurantID, start, now, previousEnd, limit)
	if err != nil {
		return nil, fmt.Errorf("popular items query failed: %w", err)
	}

	items := make([]structs.PopularItem, 0, len(rows))
	for _, row := range rows {
		trend, pct := classifyTrend(row.QuantitySold, row.PreviousQuantity)

		items = append(items, structs.PopularItem{
			MenuItemId:      row.MenuItemId,
			ItemName:        row.ItemName,
			OrderCount:      row.OrderCount,
			QuantitySold:    row.QuantitySold,
			Revenue:         row.Revenue,
			AvgPrice:        row.AvgPrice,
			Trend:           trend,
			TrendPercentage: pct,
		})
	}

	return items, nil
}

// classifyTrend compares whole-window sales against the earlier half.
// A 10% band around the previous quantity counts as stable.
func classifyTrend(current int, previous *int) (structs.Trend, *float64) {
	if previous == nil || *previous == 0 {
		return structs.TrendNew, nil
	}

	prev := float64(*previous)
	cur := float64(current)
	pct := (cur - prev) / prev * 100

	switch {
	case cur > prev*1.1:
		return structs.TrendUp, &pct
	case cur < prev*0.9:
		return structs.TrendDown, &pct
	default:
		return structs.TrendStable, &pct
	}
}

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DayOfWeekPatterns returns per-weekday averages with the top three items
// for each day that saw orders.
func (s *AnalyticsService) DayOfWeekPatterns(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]structs.DayPattern, error) {
	patterns, topItems, err := s.store.DayPatterns(ctx, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("day of week patterns query failed: %w", err)
	}

	itemsByDay := make(map[int][]string, 7)
	for _, row := range topItems {
		itemsByDay[row.DayNumber] = append(itemsByDay[row.DayNumber], row.ItemName)
	}

	result := make([]structs.DayPattern, 0, len(patterns))
	for _, row := range patterns {
		if row.DayNumber < 0 || row.DayNumber > 6 {
			continue
		}

		popular := itemsByDay[row.DayNumber]
		if popular == nil {
			popular = []string{}
		}

		result = append(result, structs.DayPattern{
			DayOfWeek:    weekdayNames[row.DayNumber],
			DayNumber:    row.DayNumber,
			AvgOrders:    row.AvgOrders,
			AvgRevenue:   row.AvgRevenue,
			PopularItems: popular,
		})
	}

	return result, nil
}

// OrderVolume returns order counts per bucket with bucket-over-bucket
// growth rates.
func (s *AnalyticsService) OrderVolume(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, groupBy string) (*structs.OrderVolume, error) {
	rows, err := s.store.VolumePeriods(ctx, restaurantID, start, end, truncUnit(groupBy))
	if err != nil {
		return nil, fmt.Errorf("order volume query failed: %w", err)
	}

	result := &structs.OrderVolume{
		StartDate: start,
		EndDate:   end,
		GroupBy:   groupBy,
		Metrics:   make([]structs.VolumePeriod, 0, len(rows)),
	}

	for i, row := range rows {
		var growth *float64
		if i > 0 && rows[i-1].OrderCount > 0 {
			prev := float64(rows[i-1].OrderCount)
			g := (float64(row.OrderCount) - prev) / prev * 100
			growth = &g
		}

		result.Metrics = append(result.Metrics, structs.VolumePeriod{
			Period:        periodLabel(row.Bucket, groupBy),
			OrderCount:    row.OrderCount,
			AvgOrderValue: row.AvgOrderValue,
			GrowthRate:    growth,
		})
	}

	return result, nil
}

// CategoryPerformance returns revenue per item category. Orders created
// before category snapshots existed land in "uncategorized".
func (s *AnalyticsService) CategoryPerformance(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]structs.CategoryPerformance, error) {
	rows, err := s.store.CategoryPerformance(ctx, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("category performance query failed: %w", err)
	}

	result := make([]structs.CategoryPerformance, 0, len(rows))
	for _, row := range rows {
		result = append(result, structs.CategoryPerformance{
			Category:   row.Category,
			Revenue:    row.Revenue,
			OrderCount: row.OrderCount,
			AvgPrice:   row.AvgPrice,
		})
	}

	return result, nil
}

// PeakHours returns per-hour averages plus the busiest and slowest hours.
// Hours without any orders are absent from the metrics.
func (s *AnalyticsService) PeakHours(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) (*structs.PeakHours, error) {
	rows, err := s.store.HourlyMetrics(ctx, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("peak hours query failed: %w", err)
	}

	result := &structs.PeakHours{
		StartDate:     start,
		EndDate:       end,
		HourlyMetrics: make([]structs.HourMetric, 0, len(rows)),
		BusiestHour:   -1,
		SlowestHour:   -1,
	}

	var maxOrders, minOrders float64
	for i, row := range rows {
		result.HourlyMetrics = append(result.HourlyMetrics, structs.HourMetric{
			Hour:       row.Hour,
			AvgOrders:  row.AvgOrders,
			AvgRevenue: row.AvgRevenue,
		})

		if i == 0 || row.AvgOrders > maxOrders {
			maxOrders = row.AvgOrders
			result.BusiestHour = row.Hour
		}
		if i == 0 || row.AvgOrders < minOrders {
			minOrders = row.AvgOrders
			result.SlowestHour = row.Hour
		}
	}

	return result, nil
}

// comparisonWindow maps a named comparison period to its length in days.
func comparisonWindow(period string) (int, error) {
	switch period {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	case "quarter":
		return 90, nil
	case "year":
		return 365, nil
	default:
		return 0, fmt.Errorf("unknown comparison period %q", period)
	}
}

// CompareSales compares the most recent window against the one before it.
func (s *AnalyticsService) CompareSales(ctx context.Context, restaurantID uuid.UUID, period string, now time.Time) (*structs.SalesComparison, error) {
	days, err := comparisonWindow(period)
	if err != nil {
		return nil, err
	}

	currentStart := now.AddDate(0, 0, -days)
	previousStart := now.AddDate(0, 0, -2*days)

	current, err := s.store.PeriodTotals(ctx, restaurantID, currentStart, now)
	if err != nil {
		return nil, fmt.Errorf("sales comparison query failed: %w", err)
	}
	previous, err := s.store.PeriodTotals(ctx, restaurantID, previousStart, currentStart)
	if err != nil {
		return nil, fmt.Errorf("sales comparison query failed: %w", err)
	}

	if current == nil {
		current = &periodTotalsRow{}
	}
	if previous == nil {
		previous = &periodTotalsRow{}
	}

	result := &structs.SalesComparison{
		Period:          period,
		CurrentRevenue:  current.Revenue,
		PreviousRevenue: previous.Revenue,
		CurrentOrders:   current.OrderCount,
		PreviousOrders:  previous.OrderCount,
	}

	if current.OrderCount > 0 {
		result.CurrentAvgOrderValue = current.Revenue / float64(current.OrderCount)
	}
	if previous.OrderCount > 0 {
		result.PreviousAvgOrderValue = previous.Revenue / float64(previous.OrderCount)
	}
	if previous.Revenue > 0 {
		result.RevenueGrowthPercentage = (current.Revenue - previous.Revenue) / previous.Revenue * 100
	}
	if previous.OrderCount > 0 {
		result.OrdersGrowthPercentage = (float64(current.OrderCount) - float64(previous.OrderCount)) / float64(previous.OrderCount) * 100
	}

	return result, nil
}

// TopPerformers returns the highest ranked items by the requested measure.
func (s *AnalyticsService) TopPerformers(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, rankBy string, limit int) ([]structs.TopPerformer, error) {
	rows, err := s.store.TopPerformers(ctx, restaurantID, start, end, rankBy, limit)
	if err != nil {
		return nil, fmt.Errorf("top performers query failed: %w", err)
	}

	result := make([]structs.TopPerformer, 0, len(rows))
	for i, row := range rows {
		result = append(result, structs.TopPerformer{
			Rank:         i + 1,
			MenuItemId:   row.MenuItemId,
			ItemName:     row.ItemName,
			Category:     row.Category,
			Revenue:      row.Revenue,
			QuantitySold: row.QuantitySold,
			OrderCount:   row.OrderCount,
		})
	}

	return result, nil
}

// OrderTypeBreakdown splits revenue between dine-in and online orders.
func (s *AnalyticsService) OrderTypeBreakdown(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]structs.OrderTypeBreakdown, error) {
	rows, err := s.store.TypeBreakdown(ctx, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("order type breakdown query failed: %w", err)
	}

	var totalRevenue float64
	for _, row := range rows {
		totalRevenue += row.Revenue
	}

	result := make([]structs.OrderTypeBreakdown, 0, len(rows))
	for _, row := range rows {
		entry := structs.OrderTypeBreakdown{
			OrderType:  row.OrderType,
			Revenue:    row.Revenue,
			OrderCount: row.OrderCount,
		}
		if row.OrderCount > 0 {
			entry.AvgOrderValue = row.Revenue / float64(row.OrderCount)
		}
		if totalRevenue > 0 {
			entry.PercentageOfTotal = row.Revenue / totalRevenue * 100
		}
		result = append(result, entry)
	}

	return result, nil
}

// CustomerBehavior summarizes new versus returning customers in the range.
// A customer is new when their first ever order falls inside the range.
func (s *AnalyticsService) CustomerBehavior(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) (*structs.CustomerBehavior, error) {
	rows, err := s.store.CustomerRows(ctx, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("customer behavior query failed: %w", err)
	}

	result := &structs.CustomerBehavior{}
	if len(rows) == 0 {
		return result, nil
	}

	var totalOrders int
	var totalSpent float64
	for _, row := range rows {
		if row.FirstOrderAt.Before(start) {
			result.ReturningCustomers++
		} else {
			result.NewCustomers++
		}
		totalOrders += row.WindowOrders
		totalSpent += row.WindowSpent
	}

	customers := float64(len(rows))
	result.RepeatRate = float64(result.ReturningCustomers) / customers * 100
	result.AvgOrdersPerCustomer = float64(totalOrders) / customers
	result.AvgCustomerLifetimeValue = totalSpent / customers

	return result, nil
}
