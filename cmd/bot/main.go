package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"doc-recognizer/internal/app"
	"doc-recognizer/internal/bot"
	"doc-recognizer/internal/repository"
	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/logger"
	"doc-recognizer/pkg/postgres"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	if err := cfg.Bot.Validate(); err != nil {
		appLogger.Fatal("Invalid bot configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The submission journal is optional
	var store bot.SubmissionStore
	if cfg.Database.Enabled() {
		db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repo := repository.NewSubmissionRepository(db, appLogger)
		if err := repo.EnsureSchema(ctx); err != nil {
			appLogger.Fatal("Failed to prepare database", zap.Error(err))
		}
		store = repo
	} else {
		appLogger.Info("DB_HOST is empty, submissions are not journaled")
	}

	telegram, err := tgbotapi.NewBotAPI(cfg.Bot.TelegramToken)
	if err != nil {
		appLogger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	appLogger.Info("Authorized on Telegram", zap.String("username", telegram.Self.UserName))

	httpClient := &http.Client{Timeout: cfg.Bot.RequestTimeout}
	client := bot.NewFunctionClient(httpClient, cfg.Bot.PassportURL, cfg.Bot.AudioURL, app.JWTManager(cfg), appLogger)
	b := bot.New(telegram, client, store, httpClient, cfg.Bot.RequestTimeout, appLogger)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := telegram.GetUpdatesChan(u)

	appLogger.Info("Bot started",
		zap.String("passport_function", cfg.Bot.PassportURL),
		zap.String("audio_function", cfg.Bot.AudioURL),
	)
	b.Run(ctx, updates)

	telegram.StopReceivingUpdates()
	appLogger.Info("Bot stopped")
}
