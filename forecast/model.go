package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// harmonicEngine fits a linear trend plus Fourier seasonality terms to the
// log-transformed series, so seasonal swings scale with the level of demand.
// Which seasonal components are included depends on the forecast horizon:
// short horizons get weekly terms, longer horizons add monthly and yearly.
type harmonicEngine struct{}

func newHarmonicEngine() *harmonicEngine {
	return &harmonicEngine{}
}

func (e *harmonicEngine) Name() string {
	return "harmonic"
}

// seasonality is one Fourier component of the design matrix.
type seasonality struct {
	period float64
	order  int
}

func seasonalitiesFor(horizonDays int) []seasonality {
	components := []seasonality{}
	if horizonDays <= 90 {
		components = append(components, seasonality{period: 7, order: 3})
	}
	if horizonDays >= 30 {
		components = append(components, seasonality{period: 30.44, order: 2})
	}
	if horizonDays >= 180 {
		components = append(components, seasonality{period: 365.25, order: 3})
	}
	return components
}

func (e *harmonicEngine) Forecast(points []Point, opts Options) ([]Prediction, error) {
	if len(points) < opts.MinTrainingPoints {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, len(points), opts.MinTrainingPoints)
	}

	series := make([]Point, len(points))
	copy(series, points)
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	components := seasonalitiesFor(opts.HorizonDays)
	cols := designWidth(components)

	// The fit needs spare degrees of freedom for a usable residual estimate.
	if len(series) < cols+2 {
		return nil, fmt.Errorf("%w: have %d, need %d for %d regressors", ErrTooFewPoints, len(series), cols+2, cols)
	}

	n := len(series)
	first := series[0].Date

	design := mat.NewDense(n, cols, nil)
	observed := mat.NewDense(n, 1, nil)
	for i, p := range series {
		t := p.Date.Sub(first).Hours() / 24
		design.SetRow(i, designRow(t, components))
		observed.Set(i, 0, math.Log1p(math.Max(p.Quantity, 0)))
	}

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, observed); err != nil {
		return nil, fmt.Errorf("least squares solve failed: %w", err)
	}

	sigma := residualStd(design, observed, &beta)
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + opts.IntervalWidth/2)

	last := series[n-1].Date
	lastT := last.Sub(first).Hours() / 24

	predictions := make([]Prediction, 0, opts.HorizonDays)
	for h := 1; h <= opts.HorizonDays; h++ {
		t := lastT + float64(h)
		row := mat.NewDense(1, cols, designRow(t, components))

		var fitted mat.Dense
		fitted.Mul(row, &beta)
		yhat := fitted.At(0, 0)

		predictions = append(predictions, Prediction{
			Date:  last.AddDate(0, 0, h),
			Value: math.Max(math.Expm1(yhat), 0),
			Lower: math.Max(math.Expm1(yhat-z*sigma), 0),
			Upper: math.Max(math.Expm1(yhat+z*sigma), 0),
		})
	}

	return predictions, nil
}

func designWidth(components []seasonality) int {
	cols := 2 // intercept and linear trend
	for _, c := range components {
		cols += 2 * c.order
	}
	return cols
}

func designRow(t float64, components []seasonality) []float64 {
	row := make([]float64, 0, designWidth(components))
	row = append(row, 1, t)
	for _, c := range components {
		for k := 1; k <= c.order; k++ {
			angle := 2 * math.Pi * float64(k) * t / c.period
			row = append(row, math.Sin(angle), math.Cos(angle))
		}
	}
	return row
}

func residualStd(design, observed *mat.Dense, beta *mat.Dense) float64 {
	n, cols := design.Dims()

	var fitted mat.Dense
	fitted.Mul(design, beta)

	var sumSq float64
	for i := 0; i < n; i++ {
		r := observed.At(i, 0) - fitted.At(i, 0)
		sumSq += r * r
	}

	dof := n - cols
	if dof < 1 {
		dof = 1
	}
	return math.Sqrt(sumSq / float64(dof))
}

// TrainingWindow reports how far back an engine wants history for the
// given horizon, mirroring the lookback used when loading the series.
func TrainingWindow(minHistoryDays int) time.Duration {
	return time.Duration(minHistoryDays*2) * 24 * time.Hour
}
