package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/medbot/internal/document"
)

// Loader turns raw document bytes into pages of text. The source is
// recorded in every page's metadata.
type Loader interface {
	Load(r io.Reader, source string) ([]document.Page, error)
}

// Options tunes loader behavior.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go PDF reader fails.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can load.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string, opts Options) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupported checks if a file extension is supported.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// LoadFile loads a single file, using its path as the source.
func LoadFile(path string, opts Options) ([]document.Page, error) {
	l, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pages, err := l.Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return pages, nil
}

// LoadDir loads every file directly inside dir whose extension is in exts,
// in lexical order. Subdirectories are not visited. The first file that
// fails to load aborts the whole run.
func LoadDir(dir string, exts []string, opts Options) ([]document.Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !IsSupported(e) {
			return nil, fmt.Errorf("unsupported file extension: %s", e)
		}
		want[e] = true
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if want[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var pages []document.Page
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name), opts)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p...)
	}
	return pages, nil
}
