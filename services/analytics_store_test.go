package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Aggregations count every order that was not cancelled; an order still
// mid-lifecycle is real demand and real revenue. This pins the status
// predicate in each rollup so a stricter filter cannot creep back in.
func TestAggregationQueriesExcludeOnlyCancelledOrders(t *testing.T) {
	queries := map[string]string{
		"revenue periods":       revenuePeriodsQuery,
		"item sales":            itemSalesQuery,
		"day patterns":          dayPatternsQuery,
		"day top items":         dayTopItemsQuery,
		"volume periods":        volumePeriodsQuery,
		"category performance":  categoryPerformanceQuery,
		"hourly metrics":        hourlyMetricsQuery,
		"period totals":         periodTotalsQuery,
		"top performers":        topPerformersQuery,
		"type breakdown":        typeBreakdownQuery,
		"customer rows":         customerRowsQuery,
		"history summary":       historySummaryQuery,
		"daily item quantities": dailyItemQuantitiesQuery,
	}

	for name, query := range queries {
		t.Run(name, func(t *testing.T) {
			predicates := strings.Count(query, "o.status")
			exclusions := strings.Count(query, "o.status NOT IN ('CANCELLED')")

			assert.Positive(t, predicates, "every rollup must filter on order status")
			assert.Equal(t, predicates, exclusions, "status filters must exclude cancelled orders and nothing else")
		})
	}
}
