package rag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates(t *testing.T) {
	set, err := DefaultTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"concise", "structured"}, set.Names())

	tmpl, err := set.Get(DefaultTemplate)
	require.NoError(t, err)
	assert.Equal(t, "structured", tmpl.Name())
}

func TestParseTemplates_RejectsMissingPlaceholders(t *testing.T) {
	cases := map[string]string{
		"no question": `[templates.a]
text = "Context: {{.Context}}"`,
		"no context": `[templates.a]
text = "Question: {{.Question}}"`,
		"unknown field": `[templates.a]
text = "{{.Context}} {{.Question}} {{.Patient}}"`,
		"bad syntax": `[templates.a]
text = "{{.Context"`,
		"empty": `title = "nothing here"`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTemplates([]byte(doc))
			assert.True(t, errors.Is(err, ErrInvalidTemplate), "got %v", err)
		})
	}
}

func TestParseTemplates_BadTOML(t *testing.T) {
	_, err := ParseTemplates([]byte("[templates.a\ntext = "))
	assert.ErrorContains(t, err, "decode prompts")
}

func TestTemplatesGet_Unknown(t *testing.T) {
	set, err := DefaultTemplates()
	require.NoError(t, err)

	_, err = set.Get("verbose")
	assert.True(t, errors.Is(err, ErrInvalidTemplate))
	assert.ErrorContains(t, err, "concise, structured")
}

func TestLoadTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[templates.short]
text = """
Context: {{.Context}}
Q: {{.Question}}
"""
`), 0o644))

	set, err := LoadTemplateFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, set.Names())

	_, err = LoadTemplateFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
