package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/riskd/internal/database"
)

// WALCheckpointJob truncates each database's WAL file on a schedule so
// long-running write activity does not let the WAL grow unbounded.
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates the WAL checkpoint job
func NewWALCheckpointJob(databases []*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal-checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal-checkpoint"
}

// Run checkpoints every database. One failure does not stop the rest.
func (j *WALCheckpointJob) Run() error {
	var lastErr error
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Checkpoint failed")
			lastErr = err
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpointed")
	}
	return lastErr
}
