package formulas

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/riskd/pkg/timeseries"
)

// returnWeight pairs one windowed return with its recency weight. Pairs are
// rebuilt per evaluation day; no scratch state is shared across days.
type returnWeight struct {
	ret    float64
	weight float64
}

// WeightedHistoricalVaR computes 1-day Value-at-Risk by weighted historical
// simulation for every day of the inclusive evaluation range [start, end].
//
// The weight vector has one entry per window slot in ascending chronological
// order: weights[0] belongs to the oldest of the trailing returns,
// weights[window-1] to the most recent. Per evaluation day the (return,
// weight) pairs are stably sorted by return ascending - after sorting, each
// weight is the probability mass assigned to that loss magnitude. Scanning
// the cumulative weights from the worst return upward, the first crossing of
// 1-confidence is the inverse-CDF lookup; VaR is that return negated.
//
// The stable sort keeps equal returns in chronological order so the
// weight-to-return pairing is deterministic under ties.
//
// A scan that completes without crossing the threshold means the weights do
// not carry enough mass (they sum below 1-confidence); that is surfaced as
// ErrThresholdNotReached, never skipped.
func WeightedHistoricalVaR(returns *timeseries.Series, start, end time.Time, window int, weights []float64, confidence float64) (*timeseries.Series, error) {
	if err := validateVaRParams(window, confidence); err != nil {
		return nil, err
	}
	if len(weights) != window {
		return nil, fmt.Errorf("%w: %d weights for window %d", ErrInvalidParameter, len(weights), window)
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: weight[%d] = %g, must be non-negative", ErrInvalidParameter, i, w)
		}
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

		pairs := make([]returnWeight, window)
		for j := 0; j < window; j++ {
			r := returns.Value(i - window + j)
			if math.IsNaN(r) {
				return nil, fmt.Errorf("%w: undefined return in window ending %s",
					ErrInsufficientData, day.Format("2006-01-02"))
			}
			pairs[j] = returnWeight{ret: r, weight: weights[j]}
		}
		sort.SliceStable(pairs, func(a, b int) bool {
			return pairs[a].ret < pairs[b].ret
		})

		dayVaR, ok := crossThreshold(pairs, tail)
		if !ok {
			return nil, fmt.Errorf("%w: tail probability %g on %s",
				ErrThresholdNotReached, tail, day.Format("2006-01-02"))
		}
		_ = out.Append(day, dayVaR)
	}

	return out, nil
}

// crossThreshold scans the sorted pairs from the worst return upward and
// returns the negated return at the first cumulative-weight crossing of the
// tail probability
func crossThreshold(pairs []returnWeight, tail float64) (float64, bool) {
	cum := 0.0
	for _, p := range pairs {
		cum += p.weight
		if cum >= tail {
			return -p.ret, true
		}
	}
	return 0, false
}
