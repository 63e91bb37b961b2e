// Package cli consolidates the initialization shared by the command
// binaries.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"comptes/internal/config"
	"comptes/internal/storage"
)

// SetupLogger configures structured logging and installs it as the
// default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file for local development. Missing files are
// fine; production sets real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the configuration, exiting the process when
// it does not validate.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage opens the SQLite repository, exiting the process on
// failure.
func OpenStorage(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.Open(dbPath)
	if err != nil {
		logger.Error("failed to open storage", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
