package services

import (
	"context"
	"time"

	"tavolo_server/database"

	"github.com/google/uuid"
)

// Row types scanned from the grouped analytics queries. The services
// compute trends, growth rates and labels in Go so they stay testable
// without a database.

type revenueRow struct {
	Bucket     time.Time `bun:"bucket"`
	Revenue    float64   `bun:"revenue"`
	OrderCount int       `bun:"order_count"`
}

type itemSalesRow struct {
	MenuItemId       uuid.UUID `bun:"menu_item_id,type:uuid"`
	ItemName         string    `bun:"item_name"`
	OrderCount       int       `bun:"order_count"`
	QuantitySold     int       `bun:"quantity_sold"`
	Revenue          float64   `bun:"revenue"`
	AvgPrice         float64   `bun:"avg_price"`
	PreviousQuantity *int      `bun:"previous_quantity"`
}

type dayPatternRow struct {
	DayNumber  int     `bun:"day_number"`
	AvgOrders  float64 `bun:"avg_orders"`
	AvgRevenue float64 `bun:"avg_revenue"`
}

type dayTopItemRow struct {
	DayNumber int    `bun:"day_number"`
	ItemName  string `bun:"item_name"`
}

type volumeRow struct {
	Bucket        time.Time `bun:"bucket"`
	OrderCount    int       `bun:"order_count"`
	AvgOrderValue float64   `bun:"avg_order_value"`
}

type categoryRow struct {
	Category   string  `bun:"category"`
	Revenue    float64 `bun:"revenue"`
	OrderCount int     `bun:"order_count"`
	AvgPrice   float64 `bun:"avg_price"`
}

type hourRow struct {
	Hour       int     `bun:"hour"`
	AvgOrders  float64 `bun:"avg_orders"`
	AvgRevenue float64 `bun:"avg_revenue"`
}

type periodTotalsRow struct {
	Revenue    float64 `bun:"revenue"`
	OrderCount int     `bun:"order_count"`
}

type topPerformerRow struct {
	MenuItemId   uuid.UUID `bun:"menu_item_id,type:uuid"`
	ItemName     string    `bun:"item_name"`
	Category     string    `bun:"category"`
	Revenue      float64   `bun:"revenue"`
	QuantitySold int       `bun:"quantity_sold"`
	OrderCount   int       `bun:"order_count"`
}

type orderTypeRow struct {
	OrderType  string  `bun:"order_type"`
	Revenue    float64 `bun:"revenue"`
	OrderCount int     `bun:"order_count"`
}

type customerRow struct {
	CustomerKey  string    `bun:"customer_key"`
	WindowOrders int       `bun:"window_orders"`
	WindowSpent  float64   `bun:"window_spent"`
	FirstOrderAt time.Time `bun:"first_order_at"`
}

// analyticsStore runs the grouped SQL behind the analytics service.
type analyticsStore interface {
	RevenuePeriods(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, unit string) ([]revenueRow, error)
	ItemSales(ctx context.Context, restaurantID uuid.UUID, start, end, previousEnd time.Time, limit int) ([]itemSalesRow, error)
	DayPatterns(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]dayPatternRow, []dayTopItemRow, error)
	VolumePeriods(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, unit string) ([]volumeRow, error)
	CategoryPerformance(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]categoryRow, error)
	HourlyMetrics(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]hourRow, error)
	PeriodTotals(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) (*periodTotalsRow, error)
	TopPerformers(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, rankBy string, limit int) ([]topPerformerRow, error)
	TypeBreakdown(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]orderTypeRow, error)
	CustomerRows(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]customerRow, error)
}

type pgAnalyticsStore struct {
	db *database.DB
}

func newPgAnalyticsStore(db *database.DB) *pgAnalyticsStore {
	return &pgAnalyticsStore{db: db}
}

// Every aggregation counts orders in any state except CANCELLED; an
// order being mid-lifecycle does not hide it from the dashboards.

const revenuePeriodsQuery = `
	SELECT date_trunc(?, o.created_at) AS bucket,
	       COALESCE(SUM(o.total), 0) AS revenue,
	       COUNT(*) AS order_count
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY bucket
	ORDER BY bucket`

const itemSalesQuery = `
	WITH current_sales AS (
		SELECT oi.menu_item_id,
		       MAX(oi.item_name) AS item_name,
		       COUNT(DISTINCT oi.order_id) AS order_count,
		       SUM(oi.quantity) AS quantity_sold,
		       SUM(oi.item_price * oi.quantity) AS revenue,
		       AVG(oi.item_price) AS avg_price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = ?
		  AND o.status NOT IN ('CANCELLED')
		  AND o.created_at >= ? AND o.created_at < ?
		GROUP BY oi.menu_item_id
	),
	previous_sales AS (
		SELECT oi.menu_item_id,
		       SUM(oi.quantity) AS quantity_sold
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = ?
		  AND o.status NOT IN ('CANCELLED')
		  AND o.created_at >= ? AND o.created_at < ?
		GROUP BY oi.menu_item_id
	)
	SELECT c.menu_item_id, c.item_name, c.order_count, c.quantity_sold,
	       c.revenue, c.avg_price,
	       p.quantity_sold AS previous_quantity
	FROM current_sales c
	LEFT JOIN previous_sales p USING (menu_item_id)
	ORDER BY c.quantity_sold DESC
	LIMIT ?`

const dayPatternsQuery = `
	SELECT EXTRACT(DOW FROM o.created_at)::int AS day_number,
	       COUNT(*)::float / GREATEST(COUNT(DISTINCT o.created_at::date), 1) AS avg_orders,
	       COALESCE(SUM(o.total), 0) / GREATEST(COUNT(DISTINCT o.created_at::date), 1) AS avg_revenue
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY day_number
	ORDER BY day_number`

const dayTopItemsQuery = `
	SELECT day_number, item_name
	FROM (
		SELECT EXTRACT(DOW FROM o.created_at)::int AS day_number,
		       oi.item_name,
		       ROW_NUMBER() OVER (
		           PARTITION BY EXTRACT(DOW FROM o.created_at)
		           ORDER BY SUM(oi.quantity) DESC
		       ) AS rn
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.restaurant_id = ?
		  AND o.status NOT IN ('CANCELLED')
		  AND o.created_at >= ? AND o.created_at < ?
		GROUP BY day_number, oi.item_name
	) ranked
	WHERE rn <= 3
	ORDER BY day_number, rn`

const volumePeriodsQuery = `
	SELECT date_trunc(?, o.created_at) AS bucket,
	       COUNT(*) AS order_count,
	       COALESCE(AVG(o.total), 0) AS avg_order_value
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY bucket
	ORDER BY bucket`

const categoryPerformanceQuery = `
	SELECT COALESCE(NULLIF(oi.item_category, ''), 'uncategorized') AS category,
	       SUM(oi.item_price * oi.quantity) AS revenue,
	       COUNT(DISTINCT oi.order_id) AS order_count,
	       AVG(oi.item_price) AS avg_price
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY category
	ORDER BY revenue DESC`

const hourlyMetricsQuery = `
	SELECT EXTRACT(HOUR FROM o.created_at)::int AS hour,
	       COUNT(*)::float / GREATEST(COUNT(DISTINCT o.created_at::date), 1) AS avg_orders,
	       COALESCE(SUM(o.total), 0) / GREATEST(COUNT(DISTINCT o.created_at::date), 1) AS avg_revenue
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY hour
	ORDER BY hour`

const periodTotalsQuery = `
	SELECT COALESCE(SUM(o.total), 0) AS revenue,
	       COUNT(*) AS order_count
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?`

const topPerformersQuery = `
	SELECT oi.menu_item_id,
	       MAX(oi.item_name) AS item_name,
	       COALESCE(NULLIF(MAX(oi.item_category), ''), 'uncategorized') AS category,
	       SUM(oi.item_price * oi.quantity) AS revenue,
	       SUM(oi.quantity) AS quantity_sold,
	       COUNT(DISTINCT oi.order_id) AS order_count
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY oi.menu_item_id`

const typeBreakdownQuery = `
	SELECT o.order_type,
	       COALESCE(SUM(o.total), 0) AS revenue,
	       COUNT(*) AS order_count
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ? AND o.created_at < ?
	GROUP BY o.order_type
	ORDER BY revenue DESC`

// Identity precedence mirrors preference tracking: registered customer,
// then normalized email, then digits-only phone.
const customerRowsQuery = `
	WITH identified AS (
		SELECT COALESCE(
		           'customer:' || o.customer_id::text,
		           'email:' || NULLIF(lower(trim(o.customer_email)), ''),
		           'phone:' || NULLIF(regexp_replace(COALESCE(o.customer_phone, ''), '[^0-9]', '', 'g'), '')
		       ) AS customer_key,
		       o.total,
		       o.created_at
		FROM orders o
		WHERE o.restaurant_id = ?
		  AND o.status NOT IN ('CANCELLED')
	)
	SELECT i.customer_key,
	       COUNT(*) FILTER (WHERE i.created_at >= ? AND i.created_at < ?) AS window_orders,
	       COALESCE(SUM(i.total) FILTER (WHERE i.created_at >= ? AND i.created_at < ?), 0) AS window_spent,
	       MIN(i.created_at) AS first_order_at
	FROM identified i
	WHERE i.customer_key IS NOT NULL
	GROUP BY i.customer_key
	HAVING COUNT(*) FILTER (WHERE i.created_at >= ? AND i.created_at < ?) > 0`

func (s *pgAnalyticsStore) RevenuePeriods(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, unit string) ([]revenueRow, error) {
	return database.RawQuery[revenueRow](s.db, ctx, revenuePeriodsQuery, unit, restaurantID, start, end)
}

func (s *pgAnalyticsStore) ItemSales(ctx context.Context, restaurantID uuid.UUID, start, end, previousEnd time.Time, limit int) ([]itemSalesRow, error) {
	return database.RawQuery[itemSalesRow](s.db, ctx, itemSalesQuery,
		restaurantID, start, end,
		restaurantID, start, previousEnd,
		limit,
	)
}

func (s *pgAnalyticsStore) DayPatterns(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]dayPatternRow, []dayTopItemRow, error) {
	patterns, err := database.RawQuery[dayPatternRow](s.db, ctx, dayPatternsQuery, restaurantID, start, end)
	if err != nil {
		return nil, nil, err
	}

	topItems, err := database.RawQuery[dayTopItemRow](s.db, ctx, dayTopItemsQuery, restaurantID, start, end)
	if err != nil {
		return nil, nil, err
	}

	return patterns, topItems, nil
}

func (s *pgAnalyticsStore) VolumePeriods(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, unit string) ([]volumeRow, error) {
	return database.RawQuery[volumeRow](s.db, ctx, volumePeriodsQuery, unit, restaurantID, start, end)
}

func (s *pgAnalyticsStore) CategoryPerformance(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]categoryRow, error) {
	return database.RawQuery[categoryRow](s.db, ctx, categoryPerformanceQuery, restaurantID, start, end)
}

func (s *pgAnalyticsStore) HourlyMetrics(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]hourRow, error) {
	return database.RawQuery[hourRow](s.db, ctx, hourlyMetricsQuery, restaurantID, start, end)
}

func (s *pgAnalyticsStore) PeriodTotals(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) (*periodTotalsRow, error) {
	return database.RawQueryOne[periodTotalsRow](s.db, ctx, periodTotalsQuery, restaurantID, start, end)
}

func (s *pgAnalyticsStore) TopPerformers(ctx context.Context, restaurantID uuid.UUID, start, end time.Time, rankBy string, limit int) ([]topPerformerRow, error) {
	// rankBy is validated upstream against a fixed whitelist.
	var orderBy string
	switch rankBy {
	case "quantity":
		orderBy = "quantity_sold"
	case "orders":
		orderBy = "order_count"
	default:
		orderBy = "revenue"
	}

	query := topPerformersQuery + `
	ORDER BY ` + orderBy + ` DESC
	LIMIT ?`

	return database.RawQuery[topPerformerRow](s.db, ctx, query, restaurantID, start, end, limit)
}

func (s *pgAnalyticsStore) TypeBreakdown(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]orderTypeRow, error) {
	return database.RawQuery[orderTypeRow](s.db, ctx, typeBreakdownQuery, restaurantID, start, end)
}

func (s *pgAnalyticsStore) CustomerRows(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) ([]customerRow, error) {
	return database.RawQuery[customerRow](s.db, ctx, customerRowsQuery,
		restaurantID,
		start, end, start, end, start, end,
	)
}
