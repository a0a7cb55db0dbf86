package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/logger"

	"go.uber.org/zap"
)

// oggOpus is what Telegram voice notes and the mobile clients record.
const oggOpus = "audio/ogg;codecs=opus"

// SpeechKitClient transcribes short voice messages with Yandex SpeechKit v1.
type SpeechKitClient struct {
	cfg        config.YandexConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSpeechKitClient(cfg config.YandexConfig, log *zap.Logger) (*SpeechKitClient, error) {
	if err := cfg.ValidateSpeechKit(); err != nil {
		return nil, newError(KindConfiguration, "Configuration Error", "", err)
	}
	return &SpeechKitClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     log,
	}, nil
}

type sttResponse struct {
	Result string `json:"result"`
	apiError
}

// Transcribe returns the top recognition result, or "" when nothing was heard.
func (c *SpeechKitClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	q := url.Values{}
	q.Set("lang", c.cfg.STTLanguage)
	q.Set("folderId", c.cfg.FolderID)
	endpoint := c.cfg.STTEndpoint + "?" + q.Encode()

	data, err := yandexCall(ctx, c.httpClient, http.MethodPost, endpoint, c.cfg.SpeechKitAPIKey, oggOpus, audio)
	if err != nil {
		return "", fmt.Errorf("speechkit: %w", err)
	}

	var out sttResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("speechkit: failed to decode response: %w", err)
	}
	if out.ErrorCode != "" {
		return "", fmt.Errorf("speechkit: %s: %s", out.ErrorCode, out.text())
	}

	text := strings.TrimSpace(out.Result)
	c.logger.Info("Speech recognized",
		zap.Int("audio_bytes", len(audio)),
		logger.Preview("text", text),
	)
	return text, nil
}
