package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"doc-recognizer/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// CompletionRequest is a single-turn prompt for a text completion model.
type CompletionRequest struct {
	Prompt    string
	MaxTokens int
}

// Completer returns the model's free-text reply to one prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewCompleter builds the completer selected by cfg.LLM.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config, log *zap.Logger) (Completer, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, newError(KindConfiguration, "Configuration Error", "", err)
	}
	if cfg.LLM.Provider == config.LLMProviderGigaChat {
		return NewGigaChatCompleter(ctx, cfg.GigaChat, log)
	}
	return NewYandexGPTCompleter(cfg.Yandex, cfg.LLM.Temperature, log)
}

// YandexGPTCompleter calls the foundationModels completion endpoint.
type YandexGPTCompleter struct {
	cfg         config.YandexConfig
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewYandexGPTCompleter(cfg config.YandexConfig, temperature float64, log *zap.Logger) (*YandexGPTCompleter, error) {
	if err := cfg.ValidateGPT(); err != nil {
		return nil, newError(KindConfiguration, "Configuration Error", "", err)
	}
	return &YandexGPTCompleter{
		cfg:         cfg,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:      log,
	}, nil
}

type gptRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []gptMessage      `json:"messages"`
}

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type gptMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type gptResponse struct {
	Result struct {
		Alternatives []struct {
			Message gptMessage `json:"message"`
			Status  string     `json:"status"`
		} `json:"alternatives"`
	} `json:"result"`
}

func (c *YandexGPTCompleter) modelURI() string {
	return fmt.Sprintf("gpt://%s/%s", c.cfg.FolderID, c.cfg.GPTModel)
}

func (c *YandexGPTCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := json.Marshal(gptRequest{
		ModelURI: c.modelURI(),
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: c.temperature,
			MaxTokens:   req.MaxTokens,
		},
		Messages: []gptMessage{{Role: "user", Text: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("yandexgpt: failed to marshal request: %w", err)
	}

	data, err := yandexCall(ctx, c.httpClient, http.MethodPost, c.cfg.GPTEndpoint, c.cfg.GPTAPIKey, "application/json", body)
	if err != nil {
		return "", fmt.Errorf("yandexgpt: %w", err)
	}

	var out gptResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("yandexgpt: failed to decode response: %w", err)
	}
	// an empty alternative list is a reply without JSON, not a transport failure
	if len(out.Result.Alternatives) == 0 {
		return "", nil
	}
	reply := out.Result.Alternatives[0].Message.Text
	c.logger.Debug("Completion received", zap.String("model", c.modelURI()), zap.String("reply", reply))
	return reply, nil
}

// GigaChatCompleter sends the same prompts to GigaChat.
type GigaChatCompleter struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func NewGigaChatCompleter(ctx context.Context, cfg config.GigaChatConfig, log *zap.Logger) (*GigaChatCompleter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(KindConfiguration, "Configuration Error", "", err)
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		log.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel("GigaChat")
	model.SystemInstruction = "Ты система извлечения данных из документов. Отвечай только JSON-объектом."
	// LLM_TEMPERATURE only applies to YandexGPT
	model.Temperature = 0.1

	return &GigaChatCompleter{client: client, model: model, logger: log}, nil
}

// Complete ignores MaxTokens; GigaChat replies for these prompts are short.
func (c *GigaChatCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: req.Prompt},
	})
	if err != nil {
		return "", fmt.Errorf("gigachat: failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("Completion received", zap.String("model", "GigaChat"), zap.String("reply", reply))
	return reply, nil
}

func (c *GigaChatCompleter) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}
