package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tavolo_server/database"
	"tavolo_server/forecast"
	"tavolo_server/lib"
	"tavolo_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

type historySummaryRow struct {
	OrderDays   int `bun:"order_days"`
	TotalOrders int `bun:"total_orders"`
}

type dailyQuantityRow struct {
	MenuItemId uuid.UUID `bun:"menu_item_id,type:uuid"`
	ItemName   string    `bun:"item_name"`
	Day        time.Time `bun:"day"`
	Quantity   float64   `bun:"quantity"`
}

type predictionStore interface {
	HistorySummary(ctx context.Context, restaurantID uuid.UUID, since time.Time) (*historySummaryRow, error)
	DailyItemQuantities(ctx context.Context, restaurantID uuid.UUID, since time.Time) ([]dailyQuantityRow, error)
}

// predictionCache is the slice of the cache service the forecaster needs.
type predictionCache interface {
	GetPredictions(restaurantID uuid.UUID, period structs.PredictionPeriod) (*structs.PredictionSet, error)
	SetPredictions(restaurantID uuid.UUID, period structs.PredictionPeriod, set *structs.PredictionSet) error
}

// trainingGate serializes model training across the whole process.
// Training is CPU heavy and a burst of cold-cache requests must not
// fan out into parallel fits.
var trainingGate = make(chan struct{}, 1)

// PredictionService produces demand forecasts per menu item with
// period-aware caching and data sufficiency gating.
type PredictionService struct {
	logger            *gecho.Logger
	store             predictionStore
	cache             predictionCache
	engine            forecast.Engine
	minTrainingPoints int
}

func NewPredictionService(logger *gecho.Logger, db *database.DB, cache *CacheService, engine forecast.Engine, minTrainingPoints int) *PredictionService {
	return &PredictionService{
		logger:            logger,
		store:             newPgPredictionStore(db),
		cache:             cache,
		engine:            engine,
		minTrainingPoints: minTrainingPoints,
	}
}

func newPredictionServiceWithDeps(logger *gecho.Logger, store predictionStore, cache predictionCache, engine forecast.Engine, minTrainingPoints int) *PredictionService {
	return &PredictionService{
		logger:            logger,
		store:             store,
		cache:             cache,
		engine:            engine,
		minTrainingPoints: minTrainingPoints,
	}
}

// DemandForecast returns per-item demand predictions for the named period.
// Results are cached per (restaurant, period) with the period's TTL; a
// cache hit is returned with the Cached flag set and no retraining.
func (s *PredictionService) DemandForecast(ctx context.Context, restaurantID uuid.UUID, period structs.PredictionPeriod) (*structs.PredictionSet, error) {
	cfg, ok := period.Config()
	if !ok {
		return nil, fmt.Errorf("%w: %q", lib.ErrInvalidPeriod, period)
	}

	// Cache failures are logged and bypassed, never surfaced.
	if cached, err := s.cache.GetPredictions(restaurantID, period); err != nil {
		s.logger.Warn("Prediction cache read failed, bypassing",
			gecho.Field("restaurant_id", restaurantID),
			gecho.Field("period", period),
			gecho.Field("error", err),
		)
	} else if cached != nil {
		cached.Cached = true
		return cached, nil
	}

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -2*cfg.MinHistoryDays)

	if err := s.validateHistory(ctx, restaurantID, since, cfg); err != nil {
		return nil, err
	}

	// Single-slot gate: one training run at a time, abandoned when the
	// request context dies while waiting.
	select {
	case trainingGate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-trainingGate }()

	set, err := s.train(ctx, restaurantID, period, cfg, now)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPredictions(restaurantID, period, set); err != nil {
		s.logger.Warn("Prediction cache write failed",
			gecho.Field("restaurant_id", restaurantID),
			gecho.Field("period", period),
			gecho.Field("error", err),
		)
	}

	return set, nil
}

func (s *PredictionService) validateHistory(ctx context.Context, restaurantID uuid.UUID, since time.Time, cfg structs.PeriodConfig) error {
	summary, err := s.store.HistorySummary(ctx, restaurantID, since)
	if err != nil {
		return fmt.Errorf("%w: history summary query failed: %v", lib.ErrDataUnavailable, err)
	}
	if summary == nil {
		summary = &historySummaryRow{}
	}

	if summary.OrderDays < cfg.MinHistoryDays {
		return &lib.InsufficientHistoryError{
			RequiredDays:  cfg.MinHistoryDays,
			AvailableDays: summary.OrderDays,
			Reason:        "not enough distinct order days",
		}
	}

	avgPerDay := float64(summary.TotalOrders) / float64(summary.OrderDays)
	if avgPerDay < 2 {
		return &lib.InsufficientHistoryError{
			RequiredDays:  cfg.MinHistoryDays,
			AvailableDays: summary.OrderDays,
			Reason:        fmt.Sprintf("order volume too sparse (%.1f orders/day, need 2)", avgPerDay),
		}
	}

	return nil
}

func (s *PredictionService) train(ctx context.Context, restaurantID uuid.UUID, period structs.PredictionPeriod, cfg structs.PeriodConfig, now time.Time) (*structs.PredictionSet, error) {
	since := now.AddDate(0, 0, -2*cfg.MinHistoryDays)

	rows, err := s.store.DailyItemQuantities(ctx, restaurantID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: training data query failed: %v", lib.ErrDataUnavailable, err)
	}

	type itemSeries struct {
		name   string
		points []forecast.Point
	}
	seriesByItem := make(map[uuid.UUID]*itemSeries)
	for _, row := range rows {
		series, ok := seriesByItem[row.MenuItemId]
		if !ok {
			series = &itemSeries{name: row.ItemName}
			seriesByItem[row.MenuItemId] = series
		}
		series.points = append(series.points, forecast.Point{
			Date:     row.Day,
			Quantity: row.Quantity,
		})
	}

	itemIDs := make([]uuid.UUID, 0, len(seriesByItem))
	for id := range seriesByItem {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool {
		return seriesByItem[itemIDs[i]].name < seriesByItem[itemIDs[j]].name
	})

	opts := forecast.Options{
		HorizonDays:       cfg.Days,
		IntervalWidth:     0.80,
		MinTrainingPoints: s.minTrainingPoints,
	}

	set := &structs.PredictionSet{
		Period:      period,
		DaysAhead:   cfg.Days,
		Predictions: []structs.ItemForecast{},
		GeneratedAt: now,
	}

	trained := 0
	for _, itemID := range itemIDs {
		series := seriesByItem[itemID]

		predictions, err := s.engine.Forecast(series.points, opts)
		if err != nil {
			// One item's failed fit never fails the whole request.
			s.logger.Warn("Skipping item forecast",
				gecho.Field("restaurant_id", restaurantID),
				gecho.Field("menu_item_id", itemID),
				gecho.Field("item_name", series.name),
				gecho.Field("error", err),
			)
			continue
		}
		trained++

		for _, p := range predictions {
			set.Predictions = append(set.Predictions, structs.ItemForecast{
				Date:              p.Date.Format("2006-01-02"),
				MenuItemId:        itemID,
				ItemName:          series.name,
				PredictedQuantity: roundNonNegative(p.Value),
				ConfidenceLower:   roundNonNegative(p.Lower),
				ConfidenceUpper:   roundNonNegative(p.Upper),
				ConfidenceLevel:   opts.IntervalWidth,
			})
		}
	}

	s.logger.Info("Trained demand forecast",
		gecho.Field("restaurant_id", restaurantID),
		gecho.Field("period", period),
		gecho.Field("items_trained", trained),
		gecho.Field("items_skipped", len(itemIDs)-trained),
	)

	return set, nil
}

func roundNonNegative(v float64) int {
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}

// ============================================================================
// Postgres implementation
// ============================================================================

type pgPredictionStore struct {
	db *database.DB
}

func newPgPredictionStore(db *database.DB) *pgPredictionStore {
	return &pgPredictionStore{db: db}
}

// Training history counts every non-cancelled order, same as the
// analytics rollups; demand exists as soon as the order is placed.

const historySummaryQuery = `
	SELECT COUNT(DISTINCT o.created_at::date) AS order_days,
	       COUNT(*) AS total_orders
	FROM orders o
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ?`

const dailyItemQuantitiesQuery = `
	SELECT oi.menu_item_id,
	       MAX(oi.item_name) AS item_name,
	       o.created_at::date AS day,
	       SUM(oi.quantity) AS quantity
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE o.restaurant_id = ?
	  AND o.status NOT IN ('CANCELLED')
	  AND o.created_at >= ?
	GROUP BY oi.menu_item_id, day
	ORDER BY oi.menu_item_id, day`

func (s *pgPredictionStore) HistorySummary(ctx context.Context, restaurantID uuid.UUID, since time.Time) (*historySummaryRow, error) {
	return database.RawQueryOne[historySummaryRow](s.db, ctx, historySummaryQuery, restaurantID, since)
}

func (s *pgPredictionStore) DailyItemQuantities(ctx context.Context, restaurantID uuid.UUID, since time.Time) ([]dailyQuantityRow, error) {
	return database.RawQuery[dailyQuantityRow](s.db, ctx, dailyItemQuantitiesQuery, restaurantID, since)
}
