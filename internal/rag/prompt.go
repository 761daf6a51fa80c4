package rag

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
)

// DefaultTemplate is the template used when none is configured.
const DefaultTemplate = "structured"

// ErrInvalidTemplate is returned for templates that cannot render a prompt.
var ErrInvalidTemplate = errors.New("invalid prompt template")

//go:embed prompts.toml
var defaultPrompts []byte

// PromptData is what templates render with.
type PromptData struct {
	Context  string
	Question string
}

type promptFile struct {
	Templates map[string]struct {
		Text string `toml:"text"`
	} `toml:"templates"`
}

// Templates is a named set of parsed prompt templates.
type Templates map[string]*template.Template

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() (Templates, error) {
	return ParseTemplates(defaultPrompts)
}

// LoadTemplateFile reads a template set from a TOML file.
func LoadTemplateFile(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes a TOML document of [templates.<name>] tables.
// Every template must render both the context and the question.
func ParseTemplates(data []byte) (Templates, error) {
	var f promptFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	if len(f.Templates) == 0 {
		return nil, fmt.Errorf("%w: no templates defined", ErrInvalidTemplate)
	}

	set := make(Templates, len(f.Templates))
	for name, t := range f.Templates {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(strings.TrimSpace(t.Text))
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidTemplate, name, err)
		}
		if err := checkTemplate(tmpl); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidTemplate, name, err)
		}
		set[name] = tmpl
	}
	return set, nil
}

// Get returns the named template.
func (t Templates) Get(name string) (*template.Template, error) {
	tmpl, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %q (have %s)", ErrInvalidTemplate, name, strings.Join(t.Names(), ", "))
	}
	return tmpl, nil
}

// Names lists the template names in order.
func (t Templates) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkTemplate renders with marker values and requires both to appear.
func checkTemplate(tmpl *template.Template) error {
	const ctxMark, qMark = "\x00context\x00", "\x00question\x00"
	var sb strings.Builder
	if err := tmpl.Execute(&sb, PromptData{Context: ctxMark, Question: qMark}); err != nil {
		return err
	}
	out := sb.String()
	if !strings.Contains(out, ctxMark) {
		return errors.New("template does not use {{.Context}}")
	}
	if !strings.Contains(out, qMark) {
		return errors.New("template does not use {{.Question}}")
	}
	return nil
}
