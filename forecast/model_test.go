package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine("harmonic")
	require.NoError(t, err)
	assert.Equal(t, "harmonic", engine.Name())

	_, err = NewEngine("prophet")
	assert.Error(t, err)
}

func TestSeasonalitiesFor(t *testing.T) {
	tests := []struct {
		horizonDays int
		wantPeriods []float64
	}{
		{horizonDays: 7, wantPeriods: []float64{7}},
		{horizonDays: 14, wantPeriods: []float64{7}},
		{horizonDays: 30, wantPeriods: []float64{7, 30.44}},
		{horizonDays: 90, wantPeriods: []float64{7, 30.44}},
		{horizonDays: 180, wantPeriods: []float64{30.44, 365.25}},
		{horizonDays: 365, wantPeriods: []float64{30.44, 365.25}},
	}

	for _, tt := range tests {
		components := seasonalitiesFor(tt.horizonDays)
		periods := make([]float64, 0, len(components))
		for _, c := range components {
			periods = append(periods, c.period)
		}
		assert.Equal(t, tt.wantPeriods, periods, "horizon %d", tt.horizonDays)
	}
}

func dailySeries(start time.Time, days int, quantity func(day int) float64) []Point {
	points := make([]Point, 0, days)
	for d := 0; d < days; d++ {
		points = append(points, Point{
			Date:     start.AddDate(0, 0, d),
			Quantity: quantity(d),
		})
	}
	return points
}

func TestForecastTooFewPoints(t *testing.T) {
	engine := newHarmonicEngine()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	points := dailySeries(start, 5, func(int) float64 { return 10 })

	_, err := engine.Forecast(points, Options{
		HorizonDays:       7,
		IntervalWidth:     0.80,
		MinTrainingPoints: 10,
	})
	require.ErrorIs(t, err, ErrTooFewPoints)
}

func TestForecastFlatSeries(t *testing.T) {
	engine := newHarmonicEngine()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	points := dailySeries(start, 60, func(int) float64 { return 10 })

	predictions, err := engine.Forecast(points, Options{
		HorizonDays:       7,
		IntervalWidth:     0.80,
		MinTrainingPoints: 10,
	})
	require.NoError(t, err)
	require.Len(t, predictions, 7)

	last := points[len(points)-1].Date
	for i, p := range predictions {
		assert.Equal(t, last.AddDate(0, 0, i+1), p.Date)
		assert.InDelta(t, 10, p.Value, 0.5)
		assert.LessOrEqual(t, p.Lower, p.Value)
		assert.GreaterOrEqual(t, p.Upper, p.Value)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
	}
}

func TestForecastRecoversWeeklyPattern(t *testing.T) {
	engine := newHarmonicEngine()
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday

	// Strong weekly cycle: peak mid-week, trough at the edges.
	points := dailySeries(start, 63, func(day int) float64 {
		return 20 + 10*math.Sin(2*math.Pi*float64(day)/7)
	})

	predictions, err := engine.Forecast(points, Options{
		HorizonDays:       7,
		IntervalWidth:     0.80,
		MinTrainingPoints: 10,
	})
	require.NoError(t, err)
	require.Len(t, predictions, 7)

	// The forecast should reproduce the cycle phase, not just the mean.
	for i, p := range predictions {
		day := 63 + i
		expected := 20 + 10*math.Sin(2*math.Pi*float64(day)/7)
		assert.InDelta(t, expected, p.Value, 3.0, "day offset %d", i)
	}
}

func TestForecastFollowsTrend(t *testing.T) {
	engine := newHarmonicEngine()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	points := dailySeries(start, 60, func(day int) float64 {
		return 5 + 0.5*float64(day)
	})

	predictions, err := engine.Forecast(points, Options{
		HorizonDays:       7,
		IntervalWidth:     0.80,
		MinTrainingPoints: 10,
	})
	require.NoError(t, err)

	lastObserved := points[len(points)-1].Quantity
	assert.Greater(t, predictions[6].Value, lastObserved,
		"an increasing series should keep increasing past the last observation")
}

func TestForecastNeverNegative(t *testing.T) {
	engine := newHarmonicEngine()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Quantities near zero push the lower bound below zero on the
	// transformed scale. The engine must clamp on the way out.
	points := dailySeries(start, 30, func(day int) float64 {
		if day%3 == 0 {
			return 0
		}
		return 1
	})

	predictions, err := engine.Forecast(points, Options{
		HorizonDays:       7,
		IntervalWidth:     0.80,
		MinTrainingPoints: 10,
	})
	require.NoError(t, err)

	for _, p := range predictions {
		assert.GreaterOrEqual(t, p.Lower, 0.0)
		assert.GreaterOrEqual(t, p.Value, 0.0)
	}
}
