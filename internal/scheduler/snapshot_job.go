package scheduler

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskd/internal/modules/history"
	"github.com/aristath/riskd/internal/modules/risk"
	"github.com/aristath/riskd/pkg/formulas"
)

// snapshotRetention bounds how long nightly snapshots are kept. They are
// recomputable, so the cache only holds a rolling quarter.
const snapshotRetention = 90 * 24 * time.Hour

// SymbolLister lists the securities with stored history.
// Implemented by history.Repository.
type SymbolLister interface {
	ListSymbols() ([]history.SymbolSummary, error)
}

// VarSnapshotJob computes the nightly historical VaR snapshot for every
// stored symbol and prunes expired snapshots.
type VarSnapshotJob struct {
	symbols    SymbolLister
	service    *risk.Service
	snapshots  *risk.SnapshotRepository
	window     int
	confidence float64
	days       int
	log        zerolog.Logger
}

// NewVarSnapshotJob creates the nightly VaR snapshot job
func NewVarSnapshotJob(
	symbols SymbolLister,
	service *risk.Service,
	snapshots *risk.SnapshotRepository,
	window int,
	confidence float64,
	days int,
	log zerolog.Logger,
) *VarSnapshotJob {
	return &VarSnapshotJob{
		symbols:    symbols,
		service:    service,
		snapshots:  snapshots,
		window:     window,
		confidence: confidence,
		days:       days,
		log:        log.With().Str("job", "var-snapshots").Logger(),
	}
}

// Name returns the job name
func (j *VarSnapshotJob) Name() string {
	return "var-snapshots"
}

// Run computes snapshots for all symbols. Symbols without enough history
// are skipped rather than failing the whole run.
func (j *VarSnapshotJob) Run() error {
	summaries, err := j.symbols.ListSymbols()
	if err != nil {
		return err
	}

	computed := 0
	skipped := 0
	for _, summary := range summaries {
		_, err := j.service.ComputeRecentSnapshot(summary.Symbol, j.window, j.confidence, j.days)
		if err != nil {
			if errors.Is(err, formulas.ErrInsufficientData) ||
				errors.Is(err, formulas.ErrWindowUnderflow) {
				skipped++
				continue
			}
			j.log.Error().Err(err).Str("symbol", summary.Symbol).Msg("Snapshot failed")
			skipped++
			continue
		}
		computed++
	}

	if _, err := j.snapshots.Prune(time.Now().Add(-snapshotRetention)); err != nil {
		j.log.Error().Err(err).Msg("Snapshot pruning failed")
	}

	j.log.Info().
		Int("computed", computed).
		Int("skipped", skipped).
		Msg("Nightly VaR snapshots done")

	return nil
}
