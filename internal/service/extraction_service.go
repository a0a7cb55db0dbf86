package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

var (
	ErrJSONNotFound = errors.New("JSON не найден")
	ErrInvalidJSON  = errors.New("Неверный JSON")
)

// LocateJSON parses the span between the first '{' and the last '}' of a
// model reply. Prose around the span is ignored; the span itself must be
// exactly one JSON object.
func LocateJSON(reply string) (map[string]any, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end < start {
		return nil, ErrJSONNotFound
	}

	dec := json.NewDecoder(strings.NewReader(reply[start : end+1]))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after the object", ErrInvalidJSON)
	}
	return obj, nil
}

// coerceNumbers turns top-level JSON numbers into their literal text. Models
// often emit document numbers unquoted.
func coerceNumbers(obj map[string]any) {
	for k, v := range obj {
		if n, ok := v.(json.Number); ok {
			obj[k] = n.String()
		}
	}
}

// fieldSchema allows each named property to be a string or null.
func fieldSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// Extraction is the parsed model reply for one domain.
type Extraction struct {
	// Values holds string fields; null and missing keys are absent.
	Values map[string]string
	// Raw is the object as the model returned it, numbers coerced.
	Raw   map[string]any
	Reply string
}

// Extractor turns recognized text into an Extraction using a completion model.
type Extractor struct {
	completer Completer
	prompts   *PromptCatalog
	schemas   map[string]*jsonschema.Schema
	logger    *zap.Logger
}

func NewExtractor(completer Completer, prompts *PromptCatalog, domains []*Domain, log *zap.Logger) (*Extractor, error) {
	schemas := make(map[string]*jsonschema.Schema, len(domains))
	for _, d := range domains {
		schema, err := compileSchema(d.Name, fieldSchema(d.FieldNames()))
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.Name, err)
		}
		schemas[d.Name] = schema
	}
	return &Extractor{completer: completer, prompts: prompts, schemas: schemas, logger: log}, nil
}

// Extract prompts the model and parses its reply. A transport failure is a
// CompletionServiceError; a reply without a usable object is a
// StructuredExtractionError carrying the reply as raw_text.
func (e *Extractor) Extract(ctx context.Context, d *Domain, text string) (*Extraction, error) {
	req, err := e.prompts.Render(d.Name, text)
	if err != nil {
		return nil, err
	}

	reply, err := e.completer.Complete(ctx, req)
	if err != nil {
		return nil, newError(KindCompletionService, "GPT API Error",
			fmt.Sprintf("Failed to extract %s data: %v", d.Name, err), err)
	}

	obj, err := LocateJSON(reply)
	if err != nil {
		e.logger.Warn("Model reply has no usable JSON",
			zap.String("domain", d.Name),
			zap.String("reply", reply),
			zap.Error(err),
		)
		msg := ErrJSONNotFound.Error()
		if errors.Is(err, ErrInvalidJSON) {
			msg = ErrInvalidJSON.Error()
		}
		return nil, newError(KindStructuredExtraction, "GPT Processing Error", msg, err).with("raw_text", reply)
	}

	coerceNumbers(obj)
	if schema, ok := e.schemas[d.Name]; ok {
		if err := schema.Validate(obj); err != nil {
			return nil, newError(KindStructuredExtraction, "GPT Processing Error",
				"JSON does not match the expected fields", err).with("raw_text", reply)
		}
	}

	values := make(map[string]string, len(obj))
	for _, name := range d.FieldNames() {
		if s, ok := obj[name].(string); ok {
			values[name] = s
		}
	}
	return &Extraction{Values: values, Raw: obj, Reply: reply}, nil
}
