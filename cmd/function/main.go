package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"doc-recognizer/internal/api"
	"doc-recognizer/internal/app"
	"doc-recognizer/internal/service"
	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/logger"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

var (
	cfgOnce sync.Once
	cfg     *config.Config
	cfgErr  error
)

// loadConfig reads the environment once per instance.
func loadConfig() (*config.Config, error) {
	cfgOnce.Do(func() {
		cfg, cfgErr = config.Load()
		if cfgErr == nil {
			cfgErr = logger.Init(cfg.Logger.Level)
		}
	})
	return cfg, cfgErr
}

// domainFunction builds its pipeline on the first request, so an instance
// only needs the keys of the function it serves.
type domainFunction struct {
	domain  string
	once    sync.Once
	handler http.HandlerFunc
	initErr error
}

func (f *domainFunction) setup() {
	cfg, err := loadConfig()
	if err != nil {
		f.initErr = err
		return
	}
	appLogger := logger.Get().With(zap.String("function", f.domain))

	recognition, err := app.NewRecognition(context.Background(), cfg, []string{f.domain}, appLogger)
	if err != nil {
		f.initErr = err
		return
	}
	f.handler = adaptor.FiberApp(api.SetupFunction(recognition.Handler, f.domain, cfg, app.JWTManager(cfg), appLogger))
}

func (f *domainFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.once.Do(f.setup)
	if f.initErr != nil {
		logger.Get().Error("Function initialization failed",
			zap.String("function", f.domain),
			zap.Error(f.initErr),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "Configuration Error",
			"message": f.initErr.Error(),
		})
		return
	}
	f.handler(w, r)
}

var (
	audioFunction    = &domainFunction{domain: service.DomainAudio}
	licenseFunction  = &domainFunction{domain: service.DomainLicense}
	passportFunction = &domainFunction{domain: service.DomainPassport}
	patentFunction   = &domainFunction{domain: service.DomainPatent}
)

func init() {
	functions.HTTP("Audio", audioFunction.ServeHTTP)
	functions.HTTP("License", licenseFunction.ServeHTTP)
	functions.HTTP("Passport", passportFunction.ServeHTTP)
	functions.HTTP("Patent", patentFunction.ServeHTTP)
}

// main runs the functions locally; FUNCTION_TARGET picks the one to serve.
func main() {
	port := "8080"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	if err := funcframework.Start(port); err != nil {
		fmt.Printf("funcframework.Start: %v\n", err)
		os.Exit(1)
	}
}
