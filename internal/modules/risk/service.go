package risk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskd/pkg/formulas"
	"github.com/aristath/riskd/pkg/timeseries"
)

// ErrNoHistory is returned when a symbol has no stored closing prices.
var ErrNoHistory = errors.New("no history for symbol")

// CloseSource provides closing price series. Implemented by
// history.Repository.
type CloseSource interface {
	CloseSeries(symbol string) (*timeseries.Series, error)
}

// Service computes risk statistics over stored price histories.
// Every operation follows the same pipeline: load closes, drop stale
// consecutive duplicates, take log returns, run the estimator.
type Service struct {
	closes    CloseSource
	snapshots *SnapshotRepository
	log       zerolog.Logger
}

// NewService creates a new risk service
func NewService(closes CloseSource, snapshots *SnapshotRepository, log zerolog.Logger) *Service {
	return &Service{
		closes:    closes,
		snapshots: snapshots,
		log:       log.With().Str("service", "risk").Logger(),
	}
}

// Returns loads a symbol's cleaned log return series.
func (s *Service) Returns(symbol string) (*timeseries.Series, error) {
	prices, err := s.closes.CloseSeries(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load closes for %s: %w", symbol, err)
	}
	if prices.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHistory, symbol)
	}
	return formulas.LogReturns(formulas.DropConsecutiveDuplicates(prices)), nil
}

// VarianceSeries computes the RiskMetrics recursive variance series for
// a symbol's full stored history.
func (s *Service) VarianceSeries(symbol string) (*timeseries.Series, error) {
	returns, err := s.Returns(symbol)
	if err != nil {
		return nil, err
	}
	return formulas.RiskMetricsVariance(returns)
}

// HistoricalVaR computes the historical simulation VaR series for the
// requested evaluation range.
func (s *Service) HistoricalVaR(p VaRParams) (*timeseries.Series, error) {
	returns, err := s.Returns(p.Symbol)
	if err != nil {
		return nil, err
	}
	return formulas.HistoricalVaR(returns, p.Start, p.End, p.Window, p.Confidence)
}

// WeightedHistoricalVaR computes the weighted historical simulation VaR
// series. Explicit weights take precedence; otherwise Lambda generates
// geometric decay weights, and uniform weights are the fallback.
func (s *Service) WeightedHistoricalVaR(p VaRParams) (*timeseries.Series, error) {
	returns, err := s.Returns(p.Symbol)
	if err != nil {
		return nil, err
	}

	weights := p.Weights
	if weights == nil {
		if p.Lambda > 0 {
			weights, err = formulas.DecayWeights(p.Window, p.Lambda)
			if err != nil {
				return nil, err
			}
		} else {
			weights, err = formulas.UniformWeights(p.Window)
			if err != nil {
				return nil, err
			}
		}
	}

	return formulas.WeightedHistoricalVaR(returns, p.Start, p.End, p.Window, weights, p.Confidence)
}

// ComputeSnapshot runs the requested estimator and persists the result.
func (s *Service) ComputeSnapshot(p SnapshotParams) (*Snapshot, error) {
	var (
		series *timeseries.Series
		err    error
	)

	switch p.Method {
	case MethodHistorical:
		series, err = s.HistoricalVaR(VaRParams{
			Symbol: p.Symbol, Start: p.Start, End: p.End,
			Window: p.Window, Confidence: p.Confidence,
		})
	case MethodWeighted:
		series, err = s.WeightedHistoricalVaR(VaRParams{
			Symbol: p.Symbol, Start: p.Start, End: p.End,
			Window: p.Window, Confidence: p.Confidence, Lambda: p.Lambda,
		})
	case MethodRiskMetrics:
		series, err = s.VarianceSeries(p.Symbol)
	default:
		return nil, fmt.Errorf("%w: unknown method %q", formulas.ErrInvalidParameter, p.Method)
	}
	if err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty result series", formulas.ErrInsufficientData)
	}

	// Undefined heads (NaN) are not worth persisting and cannot be
	// represented in JSON responses
	points := make([]SnapshotPoint, 0, series.Len())
	for i := 0; i < series.Len(); i++ {
		if math.IsNaN(series.Value(i)) {
			continue
		}
		points = append(points, SnapshotPoint{
			Date:  series.Date(i).Unix(),
			Value: series.Value(i),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no defined values in result series", formulas.ErrInsufficientData)
	}

	snapshot := &Snapshot{
		Symbol:     p.Symbol,
		Method:     p.Method,
		Window:     p.Window,
		Confidence: p.Confidence,
		Lambda:     p.Lambda,
		StartDate:  time.Unix(points[0].Date, 0).UTC(),
		EndDate:    time.Unix(points[len(points)-1].Date, 0).UTC(),
		Points:     points,
	}

	if err := s.snapshots.Insert(snapshot); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("symbol", p.Symbol).
		Str("method", string(p.Method)).
		Int("points", len(points)).
		Msg("Computed VaR snapshot")

	return snapshot, nil
}

// ComputeRecentSnapshot computes a historical VaR snapshot covering the
// most recent `days` evaluation days. Used by the nightly snapshot job.
func (s *Service) ComputeRecentSnapshot(symbol string, window int, confidence float64, days int) (*Snapshot, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", formulas.ErrInvalidParameter)
	}

	returns, err := s.Returns(symbol)
	if err != nil {
		return nil, err
	}

	// The earliest evaluable day needs a full trailing window behind it
	first := returns.Len() - days
	if first < window {
		first = window
	}
	if first >= returns.Len() {
		return nil, fmt.Errorf("%w: %d observations, need more than %d",
			formulas.ErrInsufficientData, returns.Len(), window)
	}

	return s.ComputeSnapshot(SnapshotParams{
		Symbol:     symbol,
		Method:     MethodHistorical,
		Start:      returns.Date(first),
		End:        returns.Date(returns.Len() - 1),
		Window:     window,
		Confidence: confidence,
	})
}

// GetSnapshot loads a stored snapshot by id.
func (s *Service) GetSnapshot(id string) (*Snapshot, error) {
	return s.snapshots.GetByID(id)
}

// ListSnapshots returns stored snapshot metadata for a symbol.
func (s *Service) ListSnapshots(symbol string, limit int) ([]*Snapshot, error) {
	return s.snapshots.ListBySymbol(symbol, limit)
}
