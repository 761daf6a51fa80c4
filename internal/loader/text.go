package loader

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/medbot/internal/document"
)

// TextLoader handles plain text files. Runs of blank lines collapse into a
// single paragraph break; the file becomes one page.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, source string) ([]document.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(paragraphs) == 0 {
		return nil, nil
	}
	return []document.Page{{
		Text:     strings.Join(paragraphs, "\n\n"),
		Metadata: map[string]any{"source": source},
	}}, nil
}
