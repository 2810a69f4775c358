package formulas

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/riskd/pkg/timeseries"
)

// HistoricalVaR computes 1-day Value-at-Risk by historical simulation for
// every day of the inclusive evaluation range [start, end].
//
// For each evaluation day the trailing `window` returns strictly preceding
// it form the empirical distribution; VaR is the negated quantile of that
// window at probability 1-confidence, using linear interpolation between
// order statistics. VaR is reported as a positive loss magnitude.
//
// Both range endpoints must be dates present in the series index
// (ErrDateNotFound otherwise). Days with fewer than `window` preceding
// observations fail with ErrWindowUnderflow.
func HistoricalVaR(returns *timeseries.Series, start, end time.Time, window int, confidence float64) (*timeseries.Series, error) {
	if err := validateVaRParams(window, confidence); err != nil {
		return nil, err
	}
	lo, hi, err := evaluationRange(returns, start, end)
	if err != nil {
		return nil, err
	}

	tail := 1 - confidence
	out := timeseries.New(hi - lo + 1)
	for i := lo; i <= hi; i++ {
		day := returns.Date(i)
		if i < window {
			return nil, fmt.Errorf("%w: %d observations precede %s, window is %d",
				ErrWindowUnderflow, i, day.Format("2006-01-02"), window)
		}

		q, err := interpolatedQuantile(returns.Values(i-window, i), tail)
		if err != nil {
			return nil, fmt.Errorf("window ending %s: %w", day.Format("2006-01-02"), err)
		}
		_ = out.Append(day, -q)
	}

	return out, nil
}

// interpolatedQuantile computes the empirical quantile of values at
// probability p, interpolating linearly at rank p*(n-1) between order
// statistics. Undefined (NaN) observations are excluded first.
func interpolatedQuantile(values []float64, p float64) (float64, error) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, fmt.Errorf("%w: no defined observations in window", ErrInsufficientData)
	}
	sort.Float64s(sorted)

	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower]), nil
}

// evaluationRange resolves the inclusive [start, end] date range to index
// positions in the series
func evaluationRange(returns *timeseries.Series, start, end time.Time) (int, int, error) {
	lo, ok := returns.IndexOf(start)
	if !ok {
		return 0, 0, fmt.Errorf("%w: start %s", ErrDateNotFound, start.Format("2006-01-02"))
	}
	hi, ok := returns.IndexOf(end)
	if !ok {
		return 0, 0, fmt.Errorf("%w: end %s", ErrDateNotFound, end.Format("2006-01-02"))
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("%w: end %s precedes start %s",
			ErrInvalidParameter, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return lo, hi, nil
}

// validateVaRParams checks the shared VaR preconditions eagerly, before any
// scan over evaluation days
func validateVaRParams(window int, confidence float64) error {
	if window <= 0 {
		return fmt.Errorf("%w: window %d, must be positive", ErrInvalidParameter, window)
	}
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("%w: confidence %g, must be in (0, 1)", ErrInvalidParameter, confidence)
	}
	return nil
}
