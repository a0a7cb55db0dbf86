package main

import (
	"context"
	"log"

	"doc-recognizer/internal/repository"
	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/logger"
	"doc-recognizer/pkg/postgres"

	"go.uber.org/zap"
)

// migrate prepares the submission journal ahead of the bot's first start.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	if !cfg.Database.Enabled() {
		appLogger.Fatal("DB_HOST is empty, nothing to migrate")
	}

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Applying submission schema...")
	if err := repository.NewSubmissionRepository(db, appLogger).EnsureSchema(ctx); err != nil {
		appLogger.Fatal("Failed to apply schema", zap.Error(err))
	}
	appLogger.Info("Database is ready", zap.String("database", cfg.Database.DBName))
}
