package app

import (
	"context"
	"fmt"
	"io"

	"doc-recognizer/internal/api/handlers"
	"doc-recognizer/internal/payload"
	"doc-recognizer/internal/service"
	"doc-recognizer/pkg/auth"
	"doc-recognizer/pkg/config"

	"go.uber.org/zap"
)

// Recognition is the wired pipeline for a set of domains.
type Recognition struct {
	Handler *handlers.RecognitionHandler
	Domains []string
	closers []io.Closer
	logger  *zap.Logger
}

// NewRecognition validates only the configuration the listed domains need
// and wires the pipeline. An empty list means every domain.
func NewRecognition(ctx context.Context, cfg *config.Config, domainNames []string, logger *zap.Logger) (*Recognition, error) {
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}

	domains, err := selectDomains(domainNames)
	if err != nil {
		return nil, err
	}

	var needsAudio, needsImage bool
	for _, d := range domains {
		if d.Source == payload.KindAudio {
			needsAudio = true
		} else {
			needsImage = true
		}
	}

	// interfaces stay nil for media no served domain uses
	var transcriber service.Transcriber
	if needsAudio {
		sk, err := service.NewSpeechKitClient(cfg.Yandex, logger)
		if err != nil {
			return nil, err
		}
		transcriber = sk
	}
	var detector service.TextDetector
	if needsImage {
		vision, err := service.NewVisionClient(cfg.Yandex, logger)
		if err != nil {
			return nil, err
		}
		detector = vision
	}

	completer, err := service.NewCompleter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	r := &Recognition{logger: logger}
	if c, ok := completer.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}

	prompts, err := service.LoadPrompts()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	extractor, err := service.NewExtractor(completer, prompts, domains, logger)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}

	guard := payload.Guard{
		Audio: payload.Window{Min: cfg.Limits.AudioMinBytes, Max: cfg.Limits.AudioMaxBytes},
		Image: payload.Window{Min: cfg.Limits.ImageMinBytes, Max: cfg.Limits.ImageMaxBytes},
	}
	svc := service.NewRecognitionService(transcriber, detector, extractor, guard, logger)
	r.Handler = handlers.NewRecognitionHandler(svc, cfg.Server.RequestTimeout, logger)
	for _, d := range domains {
		r.Domains = append(r.Domains, d.Name)
	}

	logger.Info("Recognition pipeline ready",
		zap.Strings("domains", r.Domains),
		zap.String("llm_provider", cfg.LLM.Provider),
	)
	return r, nil
}

// Close releases the completion client.
func (r *Recognition) Close() {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.logger.Warn("Failed to close client", zap.Error(err))
		}
	}
}

func selectDomains(names []string) ([]*service.Domain, error) {
	if len(names) == 0 {
		return service.Domains(), nil
	}
	var out []*service.Domain
	for _, name := range names {
		d, ok := service.DomainByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown domain %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

// JWTManager returns nil when caller authentication is disabled.
func JWTManager(cfg *config.Config) *auth.JWTManager {
	if !cfg.Auth.Enabled() {
		return nil
	}
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}
