package service

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptSpec struct {
	MaxTokens int    `yaml:"max_tokens"`
	Template  string `yaml:"template"`
}

// PromptCatalog renders per-domain extraction prompts.
type PromptCatalog struct {
	templates map[string]*template.Template
	maxTokens map[string]int
}

// LoadPrompts parses the embedded catalog.
func LoadPrompts() (*PromptCatalog, error) {
	return parsePrompts(promptsYAML)
}

func parsePrompts(data []byte) (*PromptCatalog, error) {
	var specs map[string]promptSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	catalog := &PromptCatalog{
		templates: make(map[string]*template.Template, len(specs)),
		maxTokens: make(map[string]int, len(specs)),
	}
	for name, spec := range specs {
		if strings.TrimSpace(spec.Template) == "" {
			return nil, fmt.Errorf("prompt %q has an empty template", name)
		}
		if spec.MaxTokens <= 0 {
			return nil, fmt.Errorf("prompt %q needs a positive max_tokens", name)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(spec.Template)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", name, err)
		}
		catalog.templates[name] = tmpl
		catalog.maxTokens[name] = spec.MaxTokens
	}
	return catalog, nil
}

// Render builds the completion request for domain with text embedded.
func (p *PromptCatalog) Render(domain, text string) (CompletionRequest, error) {
	tmpl, ok := p.templates[domain]
	if !ok {
		return CompletionRequest{}, fmt.Errorf("no prompt for domain %q", domain)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct{ Text string }{Text: text}); err != nil {
		return CompletionRequest{}, fmt.Errorf("failed to render prompt %q: %w", domain, err)
	}
	return CompletionRequest{Prompt: sb.String(), MaxTokens: p.maxTokens[domain]}, nil
}
