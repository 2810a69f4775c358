package scheduler

import (
	"github.com/rs/zerolog"
)

// Backuper runs a full backup cycle. Implemented by
// reliability.BackupService.
type Backuper interface {
	RunBackup() error
}

// BackupJob uploads the nightly database backup.
type BackupJob struct {
	backups Backuper
	log     zerolog.Logger
}

// NewBackupJob creates the nightly backup job
func NewBackupJob(backups Backuper, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups: backups,
		log:     log.With().Str("job", "s3-backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "s3-backup"
}

// Run performs the backup cycle
func (j *BackupJob) Run() error {
	return j.backups.RunBackup()
}
