package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"doc-recognizer/internal/api"
	"doc-recognizer/internal/app"
	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/logger"

	"go.uber.org/zap"
)

// @title Document Recognizer API
// @version 1.0
// @description Распознавание голосовых сообщений, водительских прав, паспортов и патентов

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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
	appLogger.Info("Starting document recognizer")

	// Wire every domain; missing keys stop the process here
	recognition, err := app.NewRecognition(context.Background(), cfg, nil, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize recognition pipeline", zap.Error(err))
	}
	defer recognition.Close()

	jwtManager := app.JWTManager(cfg)
	if jwtManager == nil {
		appLogger.Warn("AUTH_JWT_SECRET is empty, recognition endpoints are public")
	}

	// Setup router
	server := api.SetupRouter(recognition.Handler, cfg, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
