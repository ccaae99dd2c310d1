// Package cli holds the startup steps shared by the credipart binaries:
// env loading, logging, configuration and the database connection.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"credipart/internal/config"
	applog "credipart/internal/log"
	"credipart/internal/storage"
)

// Bootstrap loads the .env file, installs the component logger as default
// and returns the validated configuration. Invalid configuration ends the
// process; there is nothing sensible to do without it.
func Bootstrap(component string) (*applog.Logger, *config.Config) {
	// .env is a local development convenience, absent in production.
	_ = godotenv.Load()

	logger := applog.New(component, logLevel())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return logger, cfg
}

// OpenRepository opens the SQLite database and runs pending migrations,
// ending the process on failure.
func OpenRepository(logger *applog.Logger, dbPath string) *storage.Repository {
	repo, err := storage.NewRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err, applog.FieldPath, dbPath)
		os.Exit(1)
	}
	return repo
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
