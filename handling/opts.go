package handling

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tavolo_server/structs"
	"tavolo_server/structs/tables"
)

const dateLayout = "2006-01-02"

// DateRange is the half-open [Start, End) window an analytics query covers.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange reads start_date/end_date (YYYY-MM-DD). An end date is
// inclusive of that whole day. Defaults to the trailing 30 days.
func ParseDateRange(r *http.Request) (DateRange, error) {
	query := r.URL.Query()
	now := time.Now().UTC()

	end := now
	if raw := query.Get("end_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", raw)
		}
		end = t.AddDate(0, 0, 1) // include the whole end day
	}

	start := end.AddDate(0, 0, -30)
	if raw := query.Get("start_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", raw)
		}
		start = t
	}

	if !start.Before(end) {
		return DateRange{}, fmt.Errorf("start_date must be before end_date")
	}
	if end.Sub(start) > 366*24*time.Hour {
		return DateRange{}, fmt.Errorf("date range cannot exceed one year")
	}

	return DateRange{Start: start, End: end}, nil
}

// ParseGroupBy validates the group_by parameter against the fixed set of
// bucketing granularities. Defaults to daily.
func ParseGroupBy(r *http.Request) (string, error) {
	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		return "daily", nil
	}

	switch groupBy {
	case "hourly", "daily", "weekly", "monthly":
		return groupBy, nil
	default:
		return "", fmt.Errorf("invalid group_by %q, expected hourly, daily, weekly or monthly", groupBy)
	}
}

// ParseDays reads the days parameter, bounded to 1-365 with a default of 30.
func ParseDays(r *http.Request) (int, error) {
	return parseBoundedInt(r, "days", 1, 365, 30)
}

// ParseLimit reads the limit parameter, bounded to 1-50 with a default of 10.
func ParseLimit(r *http.Request) (int, error) {
	return parseBoundedInt(r, "limit", 1, 50, 10)
}

// ParseWeeks reads the weeks parameter, bounded to 4-52 with a default of 8.
func ParseWeeks(r *http.Request) (int, error) {
	return parseBoundedInt(r, "weeks", 4, 52, 8)
}

func parseBoundedInt(r *http.Request, name string, minVal, maxVal, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q, expected an integer", name, raw)
	}
	if val < minVal || val > maxVal {
		return 0, fmt.Errorf("%s must be between %d and %d", name, minVal, maxVal)
	}
	return val, nil
}

// ParseRankBy validates the rank_by parameter for top performer queries.
func ParseRankBy(r *http.Request) (string, error) {
	rankBy := r.URL.Query().Get("rank_by")
	if rankBy == "" {
		return "revenue", nil
	}

	switch rankBy {
	case "revenue", "quantity", "orders":
		return rankBy, nil
	default:
		return "", fmt.Errorf("invalid rank_by %q, expected revenue, quantity or orders", rankBy)
	}
}

// ParseComparisonPeriod validates the period parameter for sales comparison.
func ParseComparisonPeriod(r *http.Request) (string, error) {
	period := r.URL.Query().Get("period")
	if period == "" {
		return "week", nil
	}

	switch period {
	case "week", "month", "quarter", "year":
		return period, nil
	default:
		return "", fmt.Errorf("invalid period %q, expected week, month, quarter or year", period)
	}
}

// ParsePredictionPeriod reads the forecast period name. Validity of the
// name itself is decided by the prediction service's period table.
func ParsePredictionPeriod(r *http.Request) structs.PredictionPeriod {
	period := r.URL.Query().Get("period")
	if period == "" {
		return structs.PeriodOneWeek
	}
	return structs.PredictionPeriod(period)
}

// ParseOrderStatus reads an optional status filter for order listings.
func ParseOrderStatus(r *http.Request) (tables.OrderStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", nil
	}

	status := tables.OrderStatus(raw)
	switch status {
	case tables.OrderStatusPending, tables.OrderStatusConfirmed, tables.OrderStatusPreparing,
		tables.OrderStatusReady, tables.OrderStatusServed, tables.OrderStatusCompleted,
		tables.OrderStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status %q", raw)
	}
}

// Pagination bounds order listings.
type Pagination struct {
	Page     int
	PageSize int
}

func ParsePagination(r *http.Request) (Pagination, error) {
	page, err := parseBoundedInt(r, "page", 1, 1<<30, 1)
	if err != nil {
		return Pagination{}, err
	}
	pageSize, err := parseBoundedInt(r, "page_size", 1, 100, 20)
	if err != nil {
		return Pagination{}, err
	}
	return Pagination{Page: page, PageSize: pageSize}, nil
}
