package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"doc-recognizer/pkg/config"
	"doc-recognizer/pkg/logger"

	"go.uber.org/zap"
)

// VisionClient runs TEXT_DETECTION through Yandex Vision batchAnalyze.
type VisionClient struct {
	cfg        config.YandexConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewVisionClient(cfg config.YandexConfig, log *zap.Logger) (*VisionClient, error) {
	if err := cfg.ValidateVision(); err != nil {
		return nil, newError(KindConfiguration, "Configuration Error", "", err)
	}
	return &VisionClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     log,
	}, nil
}

type analyzeRequest struct {
	FolderID     string        `json:"folderId"`
	AnalyzeSpecs []analyzeSpec `json:"analyzeSpecs"`
}

type analyzeSpec struct {
	Content  string    `json:"content"`
	Features []feature `json:"features"`
}

type feature struct {
	Type                string              `json:"type"`
	TextDetectionConfig textDetectionConfig `json:"textDetectionConfig"`
}

type textDetectionConfig struct {
	LanguageCodes []string `json:"languageCodes"`
}

type analyzeResponse struct {
	Results []struct {
		Results []struct {
			TextDetection *textDetection `json:"textDetection"`
			Error         *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"results"`
	} `json:"results"`
}

type textDetection struct {
	Text  string       `json:"text"`
	Pages []visionPage `json:"pages"`
}

type visionPage struct {
	Blocks []struct {
		Lines []struct {
			Words []struct {
				Text string `json:"text"`
			} `json:"words"`
		} `json:"lines"`
	} `json:"blocks"`
}

// textLayout is one of the two shapes a detection result arrives in.
type textLayout interface {
	flatten() string
}

// plainLayout carries the already joined text.
type plainLayout struct {
	text string
}

func (l plainLayout) flatten() string { return l.text }

// pagedLayout is the pages/blocks/lines/words hierarchy.
type pagedLayout struct {
	pages []visionPage
}

// flatten joins words with spaces and lines with newlines. Empty lines are skipped.
func (l pagedLayout) flatten() string {
	var lines []string
	for _, page := range l.pages {
		for _, block := range page.Blocks {
			for _, line := range block.Lines {
				words := make([]string, 0, len(line.Words))
				for _, w := range line.Words {
					if w.Text != "" {
						words = append(words, w.Text)
					}
				}
				if len(words) > 0 {
					lines = append(lines, strings.Join(words, " "))
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}

// layoutOf prefers the single text field and falls back to the hierarchy.
func layoutOf(td *textDetection) textLayout {
	if td == nil {
		return nil
	}
	if td.Text != "" {
		return plainLayout{text: td.Text}
	}
	if len(td.Pages) > 0 {
		return pagedLayout{pages: td.Pages}
	}
	return nil
}

// flattenResponse joins every non-empty detection with a blank line.
func flattenResponse(resp *analyzeResponse) string {
	var parts []string
	for _, outer := range resp.Results {
		for _, inner := range outer.Results {
			layout := layoutOf(inner.TextDetection)
			if layout == nil {
				continue
			}
			if text := layout.flatten(); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// DetectText returns the recognized text of one image. An image without text
// yields "" and no error.
func (c *VisionClient) DetectText(ctx context.Context, image []byte) (string, error) {
	body, err := json.Marshal(analyzeRequest{
		FolderID: c.cfg.FolderID,
		AnalyzeSpecs: []analyzeSpec{{
			Content: base64.StdEncoding.EncodeToString(image),
			Features: []feature{{
				Type:                "TEXT_DETECTION",
				TextDetectionConfig: textDetectionConfig{LanguageCodes: c.cfg.OCRLanguages},
			}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision: failed to marshal request: %w", err)
	}

	data, err := yandexCall(ctx, c.httpClient, http.MethodPost, c.cfg.VisionEndpoint, c.cfg.VisionAPIKey, "application/json", body)
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}

	var out analyzeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("vision: failed to decode response: %w", err)
	}
	for _, outer := range out.Results {
		for _, inner := range outer.Results {
			if inner.Error != nil && inner.TextDetection == nil {
				return "", fmt.Errorf("vision: %d: %s", inner.Error.Code, inner.Error.Message)
			}
		}
	}

	text := strings.TrimSpace(flattenResponse(&out))
	c.logger.Info("Text detected",
		zap.Int("image_bytes", len(image)),
		logger.Preview("text", text),
	)
	return text, nil
}
