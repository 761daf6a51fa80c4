package rag

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/dgallion1/medbot/internal/llm"
)

// InsufficientInformation is answered when retrieval finds nothing usable.
const InsufficientInformation = "I'm sorry, I don't have enough information in my medical references to answer that question."

// ComposerConfig holds the fixed sampling and context limits.
type ComposerConfig struct {
	Temperature     float64
	MaxTokens       int
	MaxContextChars int // Context is cut to this many characters.
}

// DefaultComposerConfig returns temperature 0.2, 512 tokens, 3000 characters.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		Temperature:     0.2,
		MaxTokens:       512,
		MaxContextChars: 3000,
	}
}

// Composer turns retrieved context and a question into an answer.
type Composer struct {
	gen  llm.Generator
	tmpl *template.Template
	cfg  ComposerConfig
}

func NewComposer(gen llm.Generator, tmpl *template.Template, cfg ComposerConfig) *Composer {
	return &Composer{gen: gen, tmpl: tmpl, cfg: cfg}
}

// BuildPrompt renders the template with the joined, truncated context.
func (c *Composer) BuildPrompt(contexts []string, question string) (string, error) {
	var sb strings.Builder
	err := c.tmpl.Execute(&sb, PromptData{
		Context:  c.joinContext(contexts),
		Question: strings.TrimSpace(question),
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

// Compose answers question from contexts. Without usable context it returns
// InsufficientInformation and does not call the model.
func (c *Composer) Compose(ctx context.Context, contexts []string, question string) (string, error) {
	contexts = nonBlank(contexts)
	if len(contexts) == 0 {
		return InsufficientInformation, nil
	}

	prompt, err := c.BuildPrompt(contexts, question)
	if err != nil {
		return "", err
	}
	answer, err := c.gen.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return strings.TrimSpace(answer), nil
}

func (c *Composer) joinContext(contexts []string) string {
	joined := strings.Join(nonBlank(contexts), "\n\n")
	if c.cfg.MaxContextChars > 0 {
		if r := []rune(joined); len(r) > c.cfg.MaxContextChars {
			joined = string(r[:c.cfg.MaxContextChars])
		}
	}
	return joined
}

func nonBlank(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
