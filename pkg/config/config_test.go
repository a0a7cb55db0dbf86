package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUDIO_MIN_BYTES", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("YANDEX_OCR_LANGUAGES", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DB_CONNECT_TIMEOUT", "")
	t.Setenv("DB_APPLICATION_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.AudioMinBytes != 0 {
		t.Fatalf("expected audio min 0, got %d", cfg.Limits.AudioMinBytes)
	}
	if cfg.Limits.AudioMaxBytes != 4*1024*1024 {
		t.Fatalf("unexpected audio max %d", cfg.Limits.AudioMaxBytes)
	}
	if cfg.Limits.ImageMinBytes != 10240 || cfg.Limits.ImageMaxBytes != 4194304 {
		t.Fatalf("unexpected image limits %+v", cfg.Limits)
	}
	if cfg.LLM.Provider != LLMProviderYandexGPT {
		t.Fatalf("unexpected provider %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Fatalf("unexpected temperature %v", cfg.LLM.Temperature)
	}
	if len(cfg.Yandex.OCRLanguages) != 1 || cfg.Yandex.OCRLanguages[0] != "ru" {
		t.Fatalf("unexpected OCR languages %v", cfg.Yandex.OCRLanguages)
	}
	if cfg.Database.MaxConns != 4 || cfg.Database.ConnectTimeout != 10*time.Second || cfg.Database.ApplicationName == "" {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUDIO_MIN_BYTES", "2048")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "15s")
	t.Setenv("YANDEX_OCR_LANGUAGES", "ru, en")
	t.Setenv("LLM_PROVIDER", "GigaChat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Limits.AudioMinBytes != 2048 {
		t.Fatalf("expected 2048, got %d", cfg.Limits.AudioMinBytes)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Server.RequestTimeout)
	}
	if got := strings.Join(cfg.Yandex.OCRLanguages, "|"); got != "ru|en" {
		t.Fatalf("unexpected languages %q", got)
	}
	if cfg.LLM.Provider != LLMProviderGigaChat {
		t.Fatalf("unexpected provider %q", cfg.LLM.Provider)
	}
}

func TestLoadRejectsBadTemperature(t *testing.T) {
	t.Setenv("LLM_TEMPERATURE", "warm")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateListsAllMissingKeys(t *testing.T) {
	err := YandexConfig{}.ValidateSpeechKit()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if len(cfgErr.Keys) != 2 {
		t.Fatalf("expected two missing keys, got %v", cfgErr.Keys)
	}
	if !strings.Contains(err.Error(), "YANDEX_FOLDER_ID") {
		t.Fatalf("error should name folder id: %v", err)
	}

	ok := YandexConfig{SpeechKitAPIKey: "k", FolderID: "f"}
	if err := ok.ValidateSpeechKit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateBotAndLimits(t *testing.T) {
	if err := (BotConfig{TelegramToken: "t"}).Validate(); err == nil {
		t.Fatalf("expected missing function urls")
	}
	if err := (LimitsConfig{AudioMinBytes: 10, AudioMaxBytes: 5, ImageMaxBytes: 1}).Validate(); err == nil {
		t.Fatalf("expected inverted audio window to be rejected")
	}
	if err := (LLMConfig{Provider: "openai"}).Validate(); err == nil {
		t.Fatalf("expected unknown provider to be rejected")
	}
}
