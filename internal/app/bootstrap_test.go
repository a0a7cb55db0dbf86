package app

import (
	"context"
	"errors"
	"testing"

	"doc-recognizer/internal/service"
	"doc-recognizer/pkg/config"

	"go.uber.org/zap"
)

func baseConfig() *config.Config {
	return &config.Config{
		LLM:    config.LLMConfig{Provider: config.LLMProviderYandexGPT, Temperature: 0.1},
		Limits: config.LimitsConfig{AudioMaxBytes: 1 << 20, ImageMinBytes: 10, ImageMaxBytes: 1 << 20},
		Yandex: config.YandexConfig{
			FolderID:  "folder",
			GPTAPIKey: "gpt-key",
			GPTModel:  "yandexgpt-lite",
		},
	}
}

func TestNewRecognitionValidatesOnlyNeededServices(t *testing.T) {
	cfg := baseConfig()
	cfg.Yandex.SpeechKitAPIKey = "stt-key"

	// audio needs SpeechKit but not Vision
	r, err := NewRecognition(context.Background(), cfg, []string{service.DomainAudio}, zap.NewNop())
	if err != nil {
		t.Fatalf("audio only: %v", err)
	}
	defer r.Close()
	if len(r.Domains) != 1 || r.Domains[0] != service.DomainAudio {
		t.Fatalf("unexpected domains %v", r.Domains)
	}

	_, err = NewRecognition(context.Background(), cfg, []string{service.DomainPassport}, zap.NewNop())
	if service.KindOf(err) != service.KindConfiguration {
		t.Fatalf("passport without a Vision key must fail with a configuration error, got %v", err)
	}
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Keys[0] != "YANDEX_VISION_API_KEY" {
		t.Fatalf("expected the missing key to be named, got %v", err)
	}
}

func TestNewRecognitionRejectsUnknownDomain(t *testing.T) {
	if _, err := NewRecognition(context.Background(), baseConfig(), []string{"invoice"}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error for an unknown domain")
	}
}

func TestJWTManagerDisabledWithoutSecret(t *testing.T) {
	cfg := baseConfig()
	if JWTManager(cfg) != nil {
		t.Fatalf("expected nil manager")
	}
	cfg.Auth.JWTSecret = "secret"
	if JWTManager(cfg) == nil {
		t.Fatalf("expected a manager")
	}
}
