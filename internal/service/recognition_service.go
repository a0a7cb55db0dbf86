package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"doc-recognizer/internal/normalize"
	"doc-recognizer/internal/payload"
	"doc-recognizer/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// TextDetector turns one image into text.
type TextDetector interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// Input is one request body. Only one variant is used: Text, then the
// FrontImage/BackImage pair, then Image (or Audio for audio domains).
type Input struct {
	Text       string
	Audio      string
	Image      string
	FrontImage string
	BackImage  string
}

// Source tells where a field value came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// FieldValue is one normalized output field. A nil Value is emitted as null.
type FieldValue struct {
	Name   string
	Value  *string
	Source Source
}

// Result is the outcome of a successful recognition.
type Result struct {
	Domain  *Domain
	Fields  []FieldValue
	RawText string
	// ModelUsed is false when a lenient domain fell back to defaults;
	// ModelError then explains why.
	ModelUsed  bool
	ModelError string
}

// Field returns the value of the named field.
func (r *Result) Field(name string) *string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// SourceOf tells where the named field came from.
func (r *Result) SourceOf(name string) Source {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Source
		}
	}
	return SourceNone
}

// FallbackUsed reports whether any field was re-derived from the raw text.
func (r *Result) FallbackUsed() bool {
	for _, f := range r.Fields {
		if f.Source == SourceFallback {
			return true
		}
	}
	return false
}

// RecognitionService runs the recognize, extract, normalize pipeline for any domain.
type RecognitionService struct {
	transcriber Transcriber
	detector    TextDetector
	extractor   *Extractor
	guard       payload.Guard
	logger      *zap.Logger
}

// NewRecognitionService wires the pipeline. transcriber or detector may be nil
// when no served domain needs them.
func NewRecognitionService(transcriber Transcriber, detector TextDetector, extractor *Extractor, guard payload.Guard, log *zap.Logger) *RecognitionService {
	return &RecognitionService{
		transcriber: transcriber,
		detector:    detector,
		extractor:   extractor,
		guard:       guard,
		logger:      log,
	}
}

// Recognize validates the input, recognizes text, extracts and normalizes the
// domain fields. Every failure is an *Error.
func (s *RecognitionService) Recognize(ctx context.Context, d *Domain, in Input) (*Result, error) {
	started := time.Now()

	text, err := s.recognizedText(ctx, d, in)
	if err != nil {
		return nil, err
	}
	text = cleanText(text)
	s.logger.Info("Text ready for extraction",
		zap.String("domain", d.Name),
		logger.Preview("text", text),
	)

	res := &Result{Domain: d, RawText: text}

	ext, err := s.extractor.Extract(ctx, d, text)
	switch {
	case err == nil:
		res.ModelUsed = true
	case d.Strict:
		return nil, err
	default:
		s.logger.Warn("Extraction failed, using defaults",
			zap.String("domain", d.Name),
			zap.Error(err),
		)
		res.ModelError = modelErrorText(err)
		ext = &Extraction{Values: map[string]string{}, Raw: map[string]any{}}
	}

	var missing []FieldSpec
	for _, f := range d.Fields {
		fv := s.normalizeField(d, f, ext.Values[f.Name], text)
		if fv.Value == nil {
			missing = append(missing, f)
			fv.Value = f.Absent
		}
		res.Fields = append(res.Fields, fv)
	}

	if d.requirementFailed(len(missing)) {
		return nil, newError(KindRequiredFieldMissing, d.MissingCategory, d.missingMessage(missing), nil).
			with(d.MissingDataKey, ext.Raw)
	}

	s.logger.Info("Recognition completed",
		zap.String("domain", d.Name),
		zap.Bool("model_used", res.ModelUsed),
		zap.Bool("fallback_used", res.FallbackUsed()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

func (d *Domain) requirementFailed(missing int) bool {
	switch d.Required {
	case RequireAny:
		return missing == len(d.Fields)
	case RequireAll:
		return missing > 0
	}
	return false
}

func (s *RecognitionService) normalizeField(d *Domain, f FieldSpec, raw, text string) FieldValue {
	fv := FieldValue{Name: f.Name, Source: SourceNone}

	if !normalize.IsAbsent(raw) {
		if f.Check != nil {
			if warning := f.Check(raw); warning != "" {
				s.logger.Warn("Field failed soft validation",
					zap.String("domain", d.Name),
					zap.String("field", f.Name),
					zap.String("warning", warning),
				)
			}
		}
		if v, ok := f.Normalize(raw); ok {
			fv.Value, fv.Source = &v, SourceModel
			return fv
		}
	}

	if f.Fallback != nil {
		if v, ok := f.Fallback(text); ok {
			fv.Value, fv.Source = &v, SourceFallback
		}
	}
	return fv
}

func modelErrorText(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func (s *RecognitionService) recognizedText(ctx context.Context, d *Domain, in Input) (string, error) {
	if text := strings.TrimSpace(in.Text); text != "" {
		return text, nil
	}

	if d.Source == payload.KindAudio {
		audio := strings.TrimSpace(in.Audio)
		if audio == "" {
			return "", inputError("Bad Request", "Required fields: 'text' OR 'audio'")
		}
		return s.transcribe(ctx, audio)
	}

	front, back := strings.TrimSpace(in.FrontImage), strings.TrimSpace(in.BackImage)
	if front != "" && back != "" {
		return s.detectPair(ctx, front, back)
	}
	if image := strings.TrimSpace(in.Image); image != "" {
		return s.detectSingle(ctx, image)
	}
	return "", inputError("Bad Request", "Required fields: 'text' OR 'front_image' and 'back_image' OR 'image'")
}

func (s *RecognitionService) transcribe(ctx context.Context, encoded string) (string, error) {
	audio, err := payload.DecodeBase64(encoded)
	if err != nil {
		return "", newError(KindInput, "Invalid base64 audio data", "", err)
	}
	if err := s.guard.Check(len(audio), payload.KindAudio); err != nil {
		return "", newError(KindInput, "Bad Request", err.Error(), err)
	}
	if s.transcriber == nil {
		return "", newError(KindConfiguration, "Configuration Error", "speech recognition is not configured", nil)
	}

	text, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", newError(KindRecognitionService, "SpeechKit API Error", "Failed to recognize speech: "+err.Error(), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", newError(KindNoTextDetected, "Speech could not be recognized", "", nil)
	}
	return text, nil
}

// decodeImage runs the size guard before the format sniffer so no bytes are
// inspected for oversized input.
func (s *RecognitionService) decodeImage(encoded string) ([]byte, error) {
	image, err := payload.DecodeBase64(encoded)
	if err != nil {
		return nil, newError(KindInput, "Invalid base64 image data", "", err)
	}
	if err := s.guard.Check(len(image), payload.KindImage); err != nil {
		return nil, newError(KindInput, "Bad Request", err.Error(), err)
	}
	if format := payload.Classify(image); !format.Supported() {
		return nil, newError(KindUnsupportedFormat, "Unsupported Media Type",
			fmt.Sprintf("Invalid image format. Supported: JPEG, PNG, GIF (detected %s)", payload.DetectedMIME(image)), nil)
	}
	return image, nil
}

func (s *RecognitionService) detectSingle(ctx context.Context, encoded string) (string, error) {
	image, err := s.decodeImage(encoded)
	if err != nil {
		return "", err
	}
	if s.detector == nil {
		return "", newError(KindConfiguration, "Configuration Error", "text detection is not configured", nil)
	}

	text, err := s.detector.DetectText(ctx, image)
	if err != nil {
		return "", newError(KindRecognitionService, "Vision API Error", "Failed to recognize text: "+err.Error(), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", newError(KindNoTextDetected, "No text detected in image", "", nil)
	}
	return text, nil
}

// detectPair recognizes both sides concurrently; the labeled output always
// lists the front side first.
func (s *RecognitionService) detectPair(ctx context.Context, frontEncoded, backEncoded string) (string, error) {
	front, err := s.decodeImage(frontEncoded)
	if err != nil {
		return "", err
	}
	back, err := s.decodeImage(backEncoded)
	if err != nil {
		return "", err
	}
	if s.detector == nil {
		return "", newError(KindConfiguration, "Configuration Error", "text detection is not configured", nil)
	}

	var frontText, backText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		frontText, err = s.detector.DetectText(gctx, front)
		return err
	})
	g.Go(func() error {
		var err error
		backText, err = s.detector.DetectText(gctx, back)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", newError(KindRecognitionService, "Vision API Error", "Failed to recognize images: "+err.Error(), err)
	}

	frontText, backText = strings.TrimSpace(frontText), strings.TrimSpace(backText)
	if frontText == "" && backText == "" {
		return "", newError(KindNoTextDetected, "No text detected in image(s)", "", nil)
	}
	return fmt.Sprintf("ЛИЦЕВАЯ СТОРОНА:\n\n%s\n\nОБРАТНАЯ СТОРОНА:\n\n%s", frontText, backText), nil
}
