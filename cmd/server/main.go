package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/riskd/internal/config"
	"github.com/aristath/riskd/internal/database"
	"github.com/aristath/riskd/internal/modules/history"
	historyhandlers "github.com/aristath/riskd/internal/modules/history/handlers"
	"github.com/aristath/riskd/internal/modules/risk"
	riskhandlers "github.com/aristath/riskd/internal/modules/risk/handlers"
	"github.com/aristath/riskd/internal/reliability"
	"github.com/aristath/riskd/internal/scheduler"
	"github.com/aristath/riskd/internal/server"
	"github.com/aristath/riskd/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting riskd")

	// Initialize databases
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	databases := []*database.DB{historyDB, cacheDB}
	for _, db := range databases {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories and services
	historyRepo := history.NewRepository(historyDB, log)
	snapshotRepo := risk.NewSnapshotRepository(cacheDB, log)
	riskService := risk.NewService(historyRepo, snapshotRepo, log)

	// Optional cloud backups
	var backupService *reliability.BackupService
	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.AccessKey,
			cfg.Backup.SecretKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize S3 client - backups disabled")
		} else {
			backupService = reliability.NewBackupService(
				databases, s3Client, cfg.DataDir, cfg.Backup.RetentionDays, log)
			log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
		}
	} else {
		log.Debug().Msg("Backup credentials not configured - backups disabled")
	}

	// Background jobs
	sched := scheduler.New(log)

	snapshotJob := scheduler.NewVarSnapshotJob(
		historyRepo, riskService, snapshotRepo,
		cfg.SnapshotWindow, cfg.SnapshotConfidence, cfg.SnapshotDays, log)
	if err := sched.AddJob("30 2 * * *", snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}

	if err := sched.AddJob("@hourly", scheduler.NewWALCheckpointJob(databases, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}

	if backupService != nil {
		if err := sched.AddJob("30 3 * * *", scheduler.NewBackupJob(backupService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:            log,
		Config:         cfg,
		Databases:      databases,
		HistoryHandler: historyhandlers.NewHandler(historyRepo, log),
		RiskHandler:    riskhandlers.NewHandler(riskService, log),
		SystemHandlers: server.NewSystemHandlers(log, cfg.DataDir, databases, backupService),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
