package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"doc-recognizer/internal/payload"

	"go.uber.org/zap"
)

type fakeTranscriber struct {
	calls atomic.Int32
	text  string
	err   error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

// fakeDetector answers by the first distinguishing byte after the signature.
type fakeDetector struct {
	calls atomic.Int32
	mu    sync.Mutex
	texts map[byte]string
	err   error
}

func (f *fakeDetector) DetectText(ctx context.Context, image []byte) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[image[len(image)-1]], nil
}

type fakeCompleter struct {
	calls    atomic.Int32
	reply    string
	err      error
	lastReq  CompletionRequest
	lastLock sync.Mutex
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.calls.Add(1)
	f.lastLock.Lock()
	f.lastReq = req
	f.lastLock.Unlock()
	return f.reply, f.err
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// pngOf returns a size-byte PNG-looking payload ending with tag.
func pngOf(size int, tag byte) string {
	b := make([]byte, size)
	copy(b, pngSignature)
	b[size-1] = tag
	return base64.StdEncoding.EncodeToString(b)
}

func defaultGuard() payload.Guard {
	return payload.Guard{
		Audio: payload.Window{Min: 0, Max: 4 << 20},
		Image: payload.Window{Min: 10240, Max: 4194304},
	}
}

type pipeline struct {
	svc         *RecognitionService
	transcriber *fakeTranscriber
	detector    *fakeDetector
	completer   *fakeCompleter
}

func newPipeline(t *testing.T, guard payload.Guard) *pipeline {
	t.Helper()
	prompts, err := LoadPrompts()
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	completer := &fakeCompleter{}
	extractor, err := NewExtractor(completer, prompts, Domains(), zap.NewNop())
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	tr := &fakeTranscriber{}
	det := &fakeDetector{texts: map[byte]string{}}
	return &pipeline{
		svc:         NewRecognitionService(tr, det, extractor, guard, zap.NewNop()),
		transcriber: tr,
		detector:    det,
		completer:   completer,
	}
}

func domain(t *testing.T, name string) *Domain {
	t.Helper()
	d, ok := DomainByName(name)
	if !ok {
		t.Fatalf("unknown domain %s", name)
	}
	return d
}

func asError(t *testing.T, err error) *Error {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return e
}

func value(t *testing.T, res *Result, field string) string {
	t.Helper()
	v := res.Field(field)
	if v == nil {
		t.Fatalf("field %s is null", field)
	}
	return *v
}

func TestAudioUnderMinimumFailsBeforeAnyCall(t *testing.T) {
	guard := defaultGuard()
	guard.Audio.Min = 2048
	p := newPipeline(t, guard)

	audio := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 1000))
	_, err := p.svc.Recognize(context.Background(), domain(t, DomainAudio), Input{Audio: audio})

	e := asError(t, err)
	if e.Kind != KindInput || e.Category != "Bad Request" {
		t.Fatalf("unexpected error %+v", e)
	}
	if !errors.Is(err, payload.ErrTooSmall) {
		t.Fatalf("error should wrap ErrTooSmall: %v", err)
	}
	if p.transcriber.calls.Load() != 0 || p.completer.calls.Load() != 0 {
		t.Fatalf("remote calls made: stt=%d gpt=%d", p.transcriber.calls.Load(), p.completer.calls.Load())
	}
}

func TestLicenseProseReplyIsStructuredExtractionError(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.detector.texts['L'] = "ИВАНОВ ИВАН\n99 24 621263"
	p.completer.reply = "К сожалению, я не могу обработать этот документ."

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), Input{Image: pngOf(12*1024, 'L')})

	e := asError(t, err)
	if e.Kind != KindStructuredExtraction || e.Category != "GPT Processing Error" {
		t.Fatalf("unexpected error %+v", e)
	}
	if e.Extra["raw_text"] != p.completer.reply {
		t.Fatalf("raw_text not attached: %+v", e.Extra)
	}
	if p.completer.lastReq.MaxTokens != 400 || !strings.Contains(p.completer.lastReq.Prompt, "99 24 621263") {
		t.Fatalf("unexpected completion request %+v", p.completer.lastReq)
	}
}

func TestLicenseNormalizesFields(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `Результат: {"full_name": "иванов  иван иванович", "license_number": "99 24 621263"}`

	res, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), Input{Text: "ИВАНОВ ИВАН\n99 24 621263"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got := value(t, res, "full_name"); got != "ИВАНОВ ИВАН ИВАНОВИЧ" {
		t.Fatalf("full_name = %q", got)
	}
	if got := value(t, res, "license_number"); got != "9924621263" {
		t.Fatalf("license_number = %q", got)
	}
	if p.detector.calls.Load() != 0 {
		t.Fatalf("text input must skip recognition")
	}
}

func TestLicenseNothingExtracted(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `{"full_name": "не указано", "license_number": "12 34"}`

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), Input{Text: "неразборчиво"})

	e := asError(t, err)
	if e.Kind != KindRequiredFieldMissing || e.Category != "Data Extraction Failed" {
		t.Fatalf("unexpected error %+v", e)
	}
	if e.Message != "Не удалось извлечь ни ФИО, ни номер прав" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	if _, ok := e.Extra["raw_data"]; !ok {
		t.Fatalf("raw_data missing: %+v", e.Extra)
	}
}

func TestLicenseOneFieldIsEnough(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `{"full_name": null, "license_number": "9924621263"}`

	res, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), Input{Text: "99 24 621263"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got := value(t, res, "full_name"); got != "не указано" {
		t.Fatalf("full_name = %q", got)
	}
}

func TestAudioLenientFallback(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.transcriber.text = "мой банк тинькофф номер восемь 8 (926) 123-45-67"
	p.completer.err = errors.New("connection reset")

	audio := base64.StdEncoding.EncodeToString([]byte("OggS"))
	res, err := p.svc.Recognize(context.Background(), domain(t, DomainAudio), Input{Audio: audio})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.ModelUsed || res.ModelError == "" {
		t.Fatalf("model failure not recorded: %+v", res)
	}
	if got := value(t, res, "bank_name"); got != "не указано" {
		t.Fatalf("bank_name = %q", got)
	}
	if got := value(t, res, "phone_number"); got != "9261234567" {
		t.Fatalf("phone_number = %q", got)
	}
	if !res.FallbackUsed() {
		t.Fatalf("fallback not flagged")
	}
	if res.RawText != p.transcriber.text {
		t.Fatalf("raw text lost")
	}
}

func TestAudioModelPhoneMustBeTenDigits(t *testing.T) {
	p := newPipeline(t, defaultGuard())

	p.completer.reply = `{"bank_name": "Сбербанк", "phone_number": "901-547-78-37"}`
	res, err := p.svc.Recognize(context.Background(), domain(t, DomainAudio), Input{Text: "сбер 8 901 547 78 37"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got := value(t, res, "phone_number"); got != "9015477837" || res.FallbackUsed() {
		t.Fatalf("model phone should be used: %q fallback=%v", got, res.FallbackUsed())
	}

	// an 11-digit model value fails the strict check; the raw text decides
	p.completer.reply = `{"bank_name": "Сбербанк", "phone_number": "89015477837"}`
	res, err = p.svc.Recognize(context.Background(), domain(t, DomainAudio), Input{Text: "сбербанк без номера"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Field("phone_number") != nil {
		t.Fatalf("phone should be null, got %q", *res.Field("phone_number"))
	}
	if res.FallbackUsed() {
		t.Fatalf("fallback found nothing and must not be flagged")
	}
}

func TestAudioNoSpeech(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.transcriber.text = "   "

	audio := base64.StdEncoding.EncodeToString([]byte("OggS"))
	_, err := p.svc.Recognize(context.Background(), domain(t, DomainAudio), Input{Audio: audio})
	if e := asError(t, err); e.Kind != KindNoTextDetected || e.Category != "Speech could not be recognized" {
		t.Fatalf("unexpected error %+v", e)
	}
	if p.completer.calls.Load() != 0 {
		t.Fatalf("extraction must not run without text")
	}
}

func TestAudioRecognitionFailure(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.transcriber.err = errors.New("status 401")

	audio := base64.StdEncoding.EncodeToString([]byte("OggS"))
	_, err := p.svc.Recognize(context.Background(), domain(t, DomainAudio), Input{Audio: audio})
	if e := asError(t, err); e.Kind != KindRecognitionService || e.Category != "SpeechKit API Error" {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestPatentDocumentNumberAndRequiredFields(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `{"full_name": "Туйчиев Маъдиходжа Сайдходжаевич", "citizenship": "Таджикистан", "document_number": "401828285 / 772997561656"}`

	res, err := p.svc.Recognize(context.Background(), domain(t, DomainPatent), Input{Text: "патент"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got := value(t, res, "document_number"); got != "401828285" {
		t.Fatalf("document_number = %q", got)
	}

	p.completer.reply = `{"full_name": "Туйчиев М.", "citizenship": null, "document_number": "не указан"}`
	_, err = p.svc.Recognize(context.Background(), domain(t, DomainPatent), Input{Text: "патент"})
	e := asError(t, err)
	if e.Kind != KindRequiredFieldMissing || e.Category != "Missing required fields" {
		t.Fatalf("unexpected error %+v", e)
	}
	if e.Message != "Не удалось извлечь: citizenship, document_number" {
		t.Fatalf("unexpected message %q", e.Message)
	}
	if _, ok := e.Extra["extracted_data"]; !ok {
		t.Fatalf("extracted_data missing")
	}
}

func TestPassportCoercesNumbersAndRejectsNesting(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `{"last_name": "козлов", "first_name": "Вячеслав", "middle_name": "Валерьевич",
		"birth_date": "03.06.1970", "birth_place": "ЯКУТСК", "passport_number": 4515161589, "citizenship": "Россия"}`

	res, err := p.svc.Recognize(context.Background(), domain(t, DomainPassport), Input{Text: "паспорт"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got := value(t, res, "passport_number"); got != "4515161589" {
		t.Fatalf("passport_number = %q", got)
	}
	if got := value(t, res, "last_name"); got != "КОЗЛОВ" {
		t.Fatalf("last_name = %q", got)
	}
	if p.completer.lastReq.MaxTokens != 1500 {
		t.Fatalf("passport budget = %d", p.completer.lastReq.MaxTokens)
	}

	p.completer.reply = `{"last_name": {"value": "КОЗЛОВ"}}`
	_, err = p.svc.Recognize(context.Background(), domain(t, DomainPassport), Input{Text: "паспорт"})
	if e := asError(t, err); e.Kind != KindStructuredExtraction {
		t.Fatalf("nested value should be rejected, got %+v", e)
	}
}

func TestPassportMissingFieldsUseMarker(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `{"last_name": "КОЗЛОВ"}`

	res, err := p.svc.Recognize(context.Background(), domain(t, DomainPassport), Input{Text: "паспорт"})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got := value(t, res, "birth_place"); got != "не указан" {
		t.Fatalf("birth_place = %q", got)
	}
}

func TestDualImageLabelsFrontFirst(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.detector.texts['F'] = "ИВАНОВ ИВАН"
	p.detector.texts['B'] = "99 24 621263"
	p.completer.reply = `{"full_name": "ИВАНОВ ИВАН", "license_number": "9924621263"}`

	in := Input{
		FrontImage: pngOf(12*1024, 'F'),
		BackImage:  pngOf(12*1024, 'B'),
		Image:      pngOf(12*1024, 'X'),
	}
	res, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), in)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	want := "ЛИЦЕВАЯ СТОРОНА:\n\nИВАНОВ ИВАН\n\nОБРАТНАЯ СТОРОНА:\n\n99 24 621263"
	if res.RawText != want {
		t.Fatalf("raw text = %q", res.RawText)
	}
	if p.detector.calls.Load() != 2 {
		t.Fatalf("expected two OCR calls, got %d", p.detector.calls.Load())
	}
}

func TestDualImageBothEmpty(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	in := Input{FrontImage: pngOf(12*1024, 'F'), BackImage: pngOf(12*1024, 'B')}

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), in)
	if e := asError(t, err); e.Kind != KindNoTextDetected || e.Category != "No text detected in image(s)" {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestDualImageGuardsEachSide(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	in := Input{FrontImage: pngOf(12*1024, 'F'), BackImage: pngOf(100, 'B')}

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), in)
	if e := asError(t, err); e.Kind != KindInput {
		t.Fatalf("unexpected error %+v", e)
	}
	if p.detector.calls.Load() != 0 {
		t.Fatalf("no OCR call expected")
	}
}

func TestImageRejections(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	d := domain(t, DomainPassport)

	zeros := base64.StdEncoding.EncodeToString(make([]byte, 12*1024))
	_, err := p.svc.Recognize(context.Background(), d, Input{Image: zeros})
	e := asError(t, err)
	if e.Kind != KindUnsupportedFormat || !strings.HasPrefix(e.Message, "Invalid image format. Supported: JPEG, PNG, GIF") {
		t.Fatalf("unexpected error %+v", e)
	}

	_, err = p.svc.Recognize(context.Background(), d, Input{Image: "%%%"})
	if e := asError(t, err); e.Kind != KindInput || e.Category != "Invalid base64 image data" {
		t.Fatalf("unexpected error %+v", e)
	}

	_, err = p.svc.Recognize(context.Background(), d, Input{Image: pngOf(5<<20, 'X')})
	if e := asError(t, err); e.Kind != KindInput || e.Message != "Image size must be between 10240 bytes and 4194304 bytes" {
		t.Fatalf("unexpected error %+v", e)
	}

	_, err = p.svc.Recognize(context.Background(), d, Input{FrontImage: pngOf(12*1024, 'F')})
	if e := asError(t, err); e.Kind != KindInput || !strings.Contains(e.Message, "front_image") {
		t.Fatalf("unexpected error %+v", e)
	}

	if p.detector.calls.Load() != 0 || p.completer.calls.Load() != 0 {
		t.Fatalf("rejected input reached a remote service")
	}
}

func TestVisionFailureIsRecognitionError(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.detector.err = errors.New("status 500")

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainPatent), Input{Image: pngOf(12*1024, 'P')})
	if e := asError(t, err); e.Kind != KindRecognitionService || e.Category != "Vision API Error" {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestStrictDomainCompletionFailure(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.err = errors.New("timeout")

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainPatent), Input{Text: "патент"})
	if e := asError(t, err); e.Kind != KindCompletionService || e.Category != "GPT API Error" {
		t.Fatalf("unexpected error %+v", e)
	}
}

func TestCleanText(t *testing.T) {
	if got := cleanText(" ПАСПОРТ\x00 \xff\xfeРОССИЯ \n"); got != "ПАСПОРТ РОССИЯ" {
		t.Fatalf("unexpected cleaned text %q", got)
	}
}

func TestLicenseReplyWithTrailingObjectIsRejected(t *testing.T) {
	p := newPipeline(t, defaultGuard())
	p.completer.reply = `Пример: {"full_name": "ПЕТРОВ ПЕТР", "license_number": "1111111111"} Ответ: {"full_name": "ИВАНОВ ИВАН", "license_number": "9924621263"}`

	_, err := p.svc.Recognize(context.Background(), domain(t, DomainLicense), Input{Text: "ИВАНОВ ИВАН 99 24 621263"})

	e := asError(t, err)
	if e.Kind != KindStructuredExtraction || e.Message != ErrInvalidJSON.Error() {
		t.Fatalf("unexpected error %+v", e)
	}
	if e.Extra["raw_text"] != p.completer.reply {
		t.Fatalf("raw_text not attached: %+v", e.Extra)
	}
}
