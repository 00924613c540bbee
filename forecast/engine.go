// Package forecast implements the demand forecasting engines used by the
// prediction service. Engines are pure: they receive a daily quantity
// series and return per-day point forecasts with confidence bounds,
// without touching the database or the cache.
package forecast

import (
	"errors"
	"fmt"
	"time"
)

// Point is one observed day of demand for a single menu item.
type Point struct {
	Date     time.Time
	Quantity float64
}

// Prediction is one forecasted day for a single menu item.
type Prediction struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// Options controls a single forecasting run.
type Options struct {
	// HorizonDays is how many days past the last observation to predict.
	HorizonDays int

	// IntervalWidth is the confidence interval width, e.g. 0.80.
	IntervalWidth float64

	// MinTrainingPoints is the minimum number of observed days required
	// before an engine will attempt a fit.
	MinTrainingPoints int
}

// Engine produces demand forecasts from historical daily quantities.
type Engine interface {
	// Name returns the configured engine identifier.
	Name() string

	// Forecast fits a model to the given series and predicts HorizonDays
	// into the future. Returns ErrTooFewPoints when the series is too
	// short for a stable fit.
	Forecast(points []Point, opts Options) ([]Prediction, error)
}

// ErrTooFewPoints indicates the training series is too short for the
// requested model. Callers skip the item rather than failing the run.
var ErrTooFewPoints = errors.New("too few training points")

// NewEngine constructs the engine registered under the given name.
// Unknown names are a configuration error and should abort startup.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "harmonic":
		return newHarmonicEngine(), nil
	default:
		return nil, fmt.Errorf("unknown forecast engine %q", name)
	}
}
