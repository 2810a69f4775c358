// Package risk computes return and risk statistics over stored price
// histories.
package risk

import "time"

// Method identifies a VaR estimation method.
type Method string

const (
	MethodHistorical  Method = "historical"
	MethodWeighted    Method = "weighted"
	MethodRiskMetrics Method = "riskmetrics"
)

// VaRParams describes a VaR estimation request over a stored symbol.
type VaRParams struct {
	Symbol     string
	Start      time.Time
	End        time.Time
	Window     int
	Confidence float64

	// Weighted method only. Explicit weights take precedence; when nil
	// and Lambda is set, geometric decay weights are generated.
	Weights []float64
	Lambda  float64
}

// SnapshotParams describes a compute-and-store snapshot request.
type SnapshotParams struct {
	Symbol     string
	Method     Method
	Start      time.Time
	End        time.Time
	Window     int
	Confidence float64
	Lambda     float64
}

// SnapshotPoint is one stored (date, value) pair.
type SnapshotPoint struct {
	Date  int64   `msgpack:"d" json:"date"`
	Value float64 `msgpack:"v" json:"value"`
}

// Snapshot is a persisted VaR (or variance) series for one symbol.
type Snapshot struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Method     Method          `json:"method"`
	Window     int             `json:"window"`
	Confidence float64         `json:"confidence"`
	Lambda     float64         `json:"lambda,omitempty"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	CreatedAt  time.Time       `json:"created_at"`
	Points     []SnapshotPoint `json:"points,omitempty"`
}
