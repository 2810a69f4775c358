// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Defaults for the nightly VaR snapshot job
	SnapshotWindow     int     // Trailing observations per evaluation day
	SnapshotConfidence float64 // Tail confidence level
	SnapshotDays       int     // Evaluation days per snapshot

	Backup *BackupConfig
}

// BackupConfig holds off-site database backup configuration. Backups go to
// any S3-compatible endpoint; leaving the bucket empty disables them.
type BackupConfig struct {
	Enabled       bool
	Endpoint      string // Custom endpoint URL (empty = AWS S3)
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	RetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RISKD_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("RISKD_PORT", 8010),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		SnapshotWindow:     getEnvAsInt("SNAPSHOT_WINDOW", 252),
		SnapshotConfidence: getEnvAsFloat("SNAPSHOT_CONFIDENCE", 0.99),
		SnapshotDays:       getEnvAsInt("SNAPSHOT_DAYS", 20),
		Backup:             loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.SnapshotWindow <= 0 {
		return fmt.Errorf("SNAPSHOT_WINDOW must be positive, got %d", c.SnapshotWindow)
	}
	if c.SnapshotConfidence <= 0 || c.SnapshotConfidence >= 1 {
		return fmt.Errorf("SNAPSHOT_CONFIDENCE must be in (0, 1), got %g", c.SnapshotConfidence)
	}
	if c.SnapshotDays <= 0 {
		return fmt.Errorf("SNAPSHOT_DAYS must be positive, got %d", c.SnapshotDays)
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
	}
	return nil
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:       getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:        getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:        getEnv("BACKUP_S3_BUCKET", ""),
		AccessKey:     getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey:     getEnv("BACKUP_S3_SECRET_KEY", ""),
		RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
