package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/riskd/pkg/timeseries"
)

// RiskMetrics decay constants (JP Morgan convention for daily data).
// The literals are kept separate rather than derived from each other so the
// recursion reproduces the published figures bit for bit.
const (
	riskMetricsDecay  = 0.94
	riskMetricsWeight = 0.06
)

// RiskMetricsVariance computes the RiskMetrics exponentially-weighted moving
// variance of a return series:
//
//	Var(t) = 0.94*Var(t-1) + 0.06*Ret(t-1)^2
//
// Var(t) is a forecast for day t known at the end of day t-1; the current
// day's return never enters its own variance. The recursion is seeded with
// the unbiased sample variance of the full return series. When the first
// return is undefined (NaN, as produced by LogReturns) the first variance is
// NaN too, the seed lands on position 1, and the recursion starts at 2.
//
// The output series has the same length and date alignment as the input.
// Returns ErrInsufficientData when fewer than two defined returns exist.
func RiskMetricsVariance(returns *timeseries.Series) (*timeseries.Series, error) {
	n := returns.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d returns, need at least 2 to seed the recursion", ErrInsufficientData, n)
	}

	defined := returns.Defined()
	if len(defined) < 2 {
		return nil, fmt.Errorf("%w: %d defined returns, need at least 2 for sample variance", ErrInsufficientData, len(defined))
	}
	seed := stat.Variance(defined, nil)

	out := timeseries.New(n)
	var start int
	if math.IsNaN(returns.Value(0)) {
		_ = out.Append(returns.Date(0), math.NaN())
		_ = out.Append(returns.Date(1), seed)
		start = 2
	} else {
		_ = out.Append(returns.Date(0), seed)
		start = 1
	}

	for i := start; i < n; i++ {
		prev := out.Value(i - 1)
		r := returns.Value(i - 1)
		_ = out.Append(returns.Date(i), riskMetricsDecay*prev+riskMetricsWeight*r*r)
	}

	return out, nil
}
