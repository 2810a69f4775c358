// Package formulas implements the risk and return statistics used by riskd:
// log returns, stale-price filtering, RiskMetrics recursive variance, and
// Value-at-Risk by historical and weighted historical simulation.
package formulas

import (
	"math"

	"github.com/aristath/riskd/pkg/timeseries"
)

// LogReturns converts a price series to daily logarithmic returns
// Returns[t] = ln(Price[t] / Price[t-1])
//
// The first entry has no prior observation and is NaN. Output dates align
// with the input dates.
func LogReturns(prices *timeseries.Series) *timeseries.Series {
	out := timeseries.New(prices.Len())
	for i := 0; i < prices.Len(); i++ {
		if i == 0 {
			_ = out.Append(prices.Date(0), math.NaN())
			continue
		}
		_ = out.Append(prices.Date(i), math.Log(prices.Value(i)/prices.Value(i-1)))
	}
	return out
}

// DropConsecutiveDuplicates removes observations whose value equals the
// immediately preceding observation's value. Exchanges repeat the last close
// on days without trades; those stale prints would show up as zero returns
// and bias the tail quantiles, so they are dropped before returns are
// computed. The first observation is always kept.
func DropConsecutiveDuplicates(prices *timeseries.Series) *timeseries.Series {
	out := timeseries.New(prices.Len())
	for i := 0; i < prices.Len(); i++ {
		if i > 0 && prices.Value(i) == prices.Value(i-1) {
			continue
		}
		_ = out.Append(prices.Date(i), prices.Value(i))
	}
	return out
}
