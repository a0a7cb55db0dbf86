package bot

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"doc-recognizer/internal/dto"
	"doc-recognizer/pkg/auth"
	"doc-recognizer/pkg/middleware"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// botCaller is the caller name carried by tokens the bot signs.
const botCaller = "telegram-bot"

// FunctionError is an error envelope returned by a recognition function.
type FunctionError struct {
	Status   int
	Category string
	Message  string
}

func (e *FunctionError) Error() string {
	if e.Category != "" {
		return e.Category
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("status %d", e.Status)
}

// AudioResult is the part of the audio function reply the bot uses.
type AudioResult struct {
	BankName    string
	PhoneNumber *string
	RawText     string
}

// FunctionClient calls the deployed passport and audio functions.
type FunctionClient struct {
	httpClient  *http.Client
	passportURL string
	audioURL    string
	jwtManager  *auth.JWTManager
	logger      *zap.Logger
}

// NewFunctionClient builds a client. jwtManager may be nil when the
// functions do not authenticate callers.
func NewFunctionClient(httpClient *http.Client, passportURL, audioURL string, jwtManager *auth.JWTManager, logger *zap.Logger) *FunctionClient {
	return &FunctionClient{
		httpClient:  httpClient,
		passportURL: passportURL,
		audioURL:    audioURL,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

func (c *FunctionClient) RecognizePassport(ctx context.Context, image []byte) (*PassportData, error) {
	var resp dto.PassportResponse
	if err := c.call(ctx, c.passportURL, dto.RecognitionRequest{Image: base64.StdEncoding.EncodeToString(image)}, &resp); err != nil {
		return nil, err
	}

	passport := &PassportData{
		LastName:       deref(resp.LastName),
		FirstName:      deref(resp.FirstName),
		MiddleName:     deref(resp.MiddleName),
		BirthDate:      deref(resp.BirthDate),
		BirthPlace:     deref(resp.BirthPlace),
		PassportNumber: deref(resp.PassportNumber),
		Citizenship:    deref(resp.Citizenship),
	}
	passport.FullName = passport.ComposeFullName()
	return passport, nil
}

func (c *FunctionClient) RecognizeAudio(ctx context.Context, audio []byte) (*AudioResult, error) {
	var resp dto.AudioResponse
	if err := c.call(ctx, c.audioURL, dto.RecognitionRequest{Audio: base64.StdEncoding.EncodeToString(audio)}, &resp); err != nil {
		return nil, err
	}
	return &AudioResult{
		BankName:    deref(resp.BankName),
		PhoneNumber: resp.PhoneNumber,
		RawText:     resp.RawText,
	}, nil
}

// call posts body and decodes a success envelope into out. Error envelopes
// become *FunctionError whatever the status code.
func (c *FunctionClient) call(ctx context.Context, url string, body dto.RecognitionRequest, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderRequestID, uuid.NewString())
	if c.jwtManager != nil {
		token, err := c.jwtManager.GenerateToken(botCaller)
		if err != nil {
			return fmt.Errorf("failed to sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("function request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read function response: %w", err)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Warn("Function returned non-JSON body",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("invalid function response (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.Success || resp.StatusCode != http.StatusOK {
		return &FunctionError{Status: resp.StatusCode, Category: envelope.Error, Message: envelope.Message}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid function response: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
