package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tavolo_server/forecast"
	"tavolo_server/lib"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictionStore struct {
	summary     *historySummaryRow
	summaryErr  error
	quantities  []dailyQuantityRow
	summaryHits int
}

func (f *fakePredictionStore) HistorySummary(_ context.Context, _ uuid.UUID, _ time.Time) (*historySummaryRow, error) {
	f.summaryHits++
	return f.summary, f.summaryErr
}

func (f *fakePredictionStore) DailyItemQuantities(_ context.Context, _ uuid.UUID, _ time.Time) ([]dailyQuantityRow, error) {
	return f.quantities, nil
}

type fakeCacheEntry struct {
	set       *structs.PredictionSet
	expiresAt time.Time
}

// fakePredictionCache honors the period's TTL against its own clock, so
// tests can advance time and watch entries lapse.
type fakePredictionCache struct {
	entries map[string]fakeCacheEntry
	now     time.Time
	getErr  error
	setErr  error
}

func newFakePredictionCache() *fakePredictionCache {
	return &fakePredictionCache{
		entries: make(map[string]fakeCacheEntry),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakePredictionCache) key(restaurantID uuid.UUID, period structs.PredictionPeriod) string {
	return fmt.Sprintf("predictions:%s:%s", restaurantID, period)
}

func (f *fakePredictionCache) GetPredictions(restaurantID uuid.UUID, period structs.PredictionPeriod) (*structs.PredictionSet, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[f.key(restaurantID, period)]
	if !ok || !f.now.Before(entry.expiresAt) {
		return nil, nil
	}
	return entry.set, nil
}

func (f *fakePredictionCache) SetPredictions(restaurantID uuid.UUID, period structs.PredictionPeriod, set *structs.PredictionSet) error {
	if f.setErr != nil {
		return f.setErr
	}
	cfg, ok := period.Config()
	if !ok {
		return fmt.Errorf("no cache TTL known for period %q", period)
	}
	f.entries[f.key(restaurantID, period)] = fakeCacheEntry{set: set, expiresAt: f.now.Add(cfg.CacheTTL)}
	return nil
}

// steadyQuantities builds a dense daily series for one item.
func steadyQuantities(itemID uuid.UUID, name string, days int, quantity float64) []dailyQuantityRow {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dailyQuantityRow, 0, days)
	for d := 0; d < days; d++ {
		rows = append(rows, dailyQuantityRow{
			MenuItemId: itemID,
			ItemName:   name,
			Day:        start.AddDate(0, 0, d),
			Quantity:   quantity,
		})
	}
	return rows
}

func newTestPredictionService(store predictionStore, cache predictionCache) *PredictionService {
	engine, err := forecast.NewEngine("harmonic")
	if err != nil {
		panic(err)
	}
	return newPredictionServiceWithDeps(gecho.NewDefaultLogger(), store, cache, engine, 10)
}

func TestDemandForecastInvalidPeriod(t *testing.T) {
	service := newTestPredictionService(&fakePredictionStore{}, newFakePredictionCache())

	_, err := service.DemandForecast(context.Background(), uuid.New(), "4_weeks")
	require.ErrorIs(t, err, lib.ErrInvalidPeriod)
}

func TestDemandForecastCacheHit(t *testing.T) {
	restaurantID := uuid.New()
	cache := newFakePredictionCache()
	store := &fakePredictionStore{}

	cached := &structs.PredictionSet{Period: structs.PeriodOneWeek, DaysAhead: 7}
	require.NoError(t, cache.SetPredictions(restaurantID, structs.PeriodOneWeek, cached))

	service := newTestPredictionService(store, cache)

	result, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err)

	assert.True(t, result.Cached)
	assert.Zero(t, store.summaryHits, "a cache hit must not touch the database")
}

func TestDemandForecastInsufficientDays(t *testing.T) {
	// 59 distinct order days is one short of the 1_week minimum.
	store := &fakePredictionStore{summary: &historySummaryRow{OrderDays: 59, TotalOrders: 300}}
	service := newTestPredictionService(store, newFakePredictionCache())

	_, err := service.DemandForecast(context.Background(), uuid.New(), structs.PeriodOneWeek)

	var insufficient *lib.InsufficientHistoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 60, insufficient.RequiredDays)
	assert.Equal(t, 59, insufficient.AvailableDays)
}

func TestDemandForecastSparseVolume(t *testing.T) {
	// Enough days, but averaging below two orders per day.
	store := &fakePredictionStore{summary: &historySummaryRow{OrderDays: 60, TotalOrders: 60}}
	service := newTestPredictionService(store, newFakePredictionCache())

	_, err := service.DemandForecast(context.Background(), uuid.New(), structs.PeriodOneWeek)

	var insufficient *lib.InsufficientHistoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Contains(t, insufficient.Reason, "sparse")
}

func TestDemandForecastTrainsAndCaches(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()

	store := &fakePredictionStore{
		summary:    &historySummaryRow{OrderDays: 60, TotalOrders: 600},
		quantities: steadyQuantities(itemID, "Margherita", 60, 12),
	}
	cache := newFakePredictionCache()
	service := newTestPredictionService(store, cache)

	result, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, 7, result.DaysAhead)
	require.Len(t, result.Predictions, 7)

	for _, p := range result.Predictions {
		assert.Equal(t, itemID, p.MenuItemId)
		assert.Equal(t, "Margherita", p.ItemName)
		assert.InDelta(t, 12, p.PredictedQuantity, 2)
		assert.GreaterOrEqual(t, p.ConfidenceLower, 0)
		assert.LessOrEqual(t, p.ConfidenceLower, p.ConfidenceUpper)
		assert.InDelta(t, 0.80, p.ConfidenceLevel, 1e-9)
	}

	// A second call must come from the cache.
	again, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err)
	assert.True(t, again.Cached)
}

func TestDemandForecastRetrainsAfterCacheExpiry(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()

	store := &fakePredictionStore{
		summary:    &historySummaryRow{OrderDays: 60, TotalOrders: 600},
		quantities: steadyQuantities(itemID, "Margherita", 60, 12),
	}
	cache := newFakePredictionCache()
	service := newTestPredictionService(store, cache)

	first, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, store.summaryHits)

	// The 1_week entry lives for 24 hours. A day and a minute later it
	// must be gone and the forecast retrained from the database.
	cfg, ok := structs.PeriodOneWeek.Config()
	require.True(t, ok)
	cache.now = cache.now.Add(cfg.CacheTTL + time.Minute)

	second, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err)
	assert.False(t, second.Cached, "an expired entry must not be served")
	assert.Equal(t, 2, store.summaryHits)
}

func TestDemandForecastSkipsShortItemSeries(t *testing.T) {
	restaurantID := uuid.New()
	goodItem := uuid.New()
	sparseItem := uuid.New()

	quantities := steadyQuantities(goodItem, "Margherita", 60, 12)
	quantities = append(quantities, steadyQuantities(sparseItem, "Seasonal Special", 3, 5)...)

	store := &fakePredictionStore{
		summary:    &historySummaryRow{OrderDays: 60, TotalOrders: 600},
		quantities: quantities,
	}
	service := newTestPredictionService(store, newFakePredictionCache())

	result, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err, "one sparse item must not fail the request")

	for _, p := range result.Predictions {
		assert.Equal(t, goodItem, p.MenuItemId)
	}
	assert.Len(t, result.Predictions, 7)
}

func TestSkippedItemForecastLogsCause(t *testing.T) {
	restaurantID := uuid.New()
	goodItem := uuid.New()
	sparseItem := uuid.New()

	quantities := steadyQuantities(goodItem, "Margherita", 60, 12)
	quantities = append(quantities, steadyQuantities(sparseItem, "Seasonal Special", 3, 5)...)

	store := &fakePredictionStore{
		summary:    &historySummaryRow{OrderDays: 60, TotalOrders: 600},
		quantities: quantities,
	}

	var buf bytes.Buffer
	logger := gecho.NewLogger(gecho.NewConfig(
		gecho.WithOutput(&buf),
		gecho.WithLogFormat(gecho.LogFormatText),
		gecho.WithColorize(false),
		gecho.WithShowCaller(false),
	))

	engine, err := forecast.NewEngine("harmonic")
	require.NoError(t, err)
	service := newPredictionServiceWithDeps(logger, store, newFakePredictionCache(), engine, 10)

	_, err = service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err)

	// The skipped item must be traceable from the log line alone.
	out := buf.String()
	assert.Contains(t, out, "Skipping item forecast")
	assert.Contains(t, out, "menu_item_id="+sparseItem.String())
	assert.Contains(t, out, "item_name=Seasonal Special")
	assert.True(t, strings.Contains(out, "error="), "the fit failure must be attached as a field")
}

func TestDemandForecastCacheFailuresAreBypassed(t *testing.T) {
	restaurantID := uuid.New()
	itemID := uuid.New()

	store := &fakePredictionStore{
		summary:    &historySummaryRow{OrderDays: 60, TotalOrders: 600},
		quantities: steadyQuantities(itemID, "Margherita", 60, 12),
	}
	cache := newFakePredictionCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	service := newTestPredictionService(store, cache)

	result, err := service.DemandForecast(context.Background(), restaurantID, structs.PeriodOneWeek)
	require.NoError(t, err, "an unreachable cache never fails the request")
	assert.Len(t, result.Predictions, 7)
}

func TestDemandForecastStoreFailure(t *testing.T) {
	store := &fakePredictionStore{summaryErr: errors.New("connection reset")}
	service := newTestPredictionService(store, newFakePredictionCache())

	_, err := service.DemandForecast(context.Background(), uuid.New(), structs.PeriodOneWeek)
	require.ErrorIs(t, err, lib.ErrDataUnavailable)
}
