package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/medbot/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFLoader emits one page per PDF page. It tries the Go library first,
// then optionally falls back to pdftotext.
type PDFLoader struct {
	FallbackPdftotext bool
}

func (l *PDFLoader) Load(r io.Reader, source string) ([]document.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	texts, err := extractPDFPages(data)
	if err != nil && l.FallbackPdftotext {
		texts, err = extractPdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	pages := make([]document.Page, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, document.Page{
			Text: text,
			Metadata: map[string]any{
				"source":      source,
				"page":        i,
				"total_pages": len(texts),
			},
		})
	}
	return pages, nil
}

// extractPDFPages returns the plain text of every page, in order. Pages the
// library cannot decode come back empty so page numbers stay aligned.
func extractPDFPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	texts := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

func extractPdftotext(data []byte) ([]string, error) {
	// pdftotext wants a path.
	tmp, err := os.CreateTemp("", "medbot-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPdftotextPages(string(out)), nil
}

// splitPdftotextPages splits pdftotext output on form feeds. The output
// ends with one, so a blank trailing piece is dropped.
func splitPdftotextPages(out string) []string {
	pages := strings.Split(out, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
