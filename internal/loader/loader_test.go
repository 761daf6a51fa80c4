package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestForFile(t *testing.T) {
	cases := []struct {
		name string
		want Loader
	}{
		{"book.pdf", &PDFLoader{}},
		{"BOOK.PDF", &PDFLoader{}},
		{"notes.txt", &TextLoader{}},
		{"readme.md", &MarkdownLoader{}},
		{"page.htm", &HTMLLoader{}},
		{"letter.docx", &DOCXLoader{}},
	}
	for _, tc := range cases {
		l, err := ForFile(tc.name, Options{})
		require.NoError(t, err, tc.name)
		assert.IsType(t, tc.want, l, tc.name)
	}

	_, err := ForFile("sheet.xlsx", Options{})
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestForFile_PDFFallbackOption(t *testing.T) {
	l, err := ForFile("a.pdf", Options{PDFFallbackPdftotext: true})
	require.NoError(t, err)
	assert.True(t, l.(*PDFLoader).FallbackPdftotext)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("x.PDF"))
	assert.True(t, IsSupported("x.markdown"))
	assert.True(t, IsSupported(".docx"))
	assert.False(t, IsSupported("x.csv"))
	assert.False(t, IsSupported("noext"))
}

func TestLoadDir_FiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "Second file.")
	writeFile(t, dir, "a.txt", "First file.")
	writeFile(t, dir, "c.md", "# Heading\n\nMarkdown body.")
	writeFile(t, dir, "ignored.csv", "a,b\n1,2")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	pages, err := LoadDir(dir, []string{".txt"}, Options{})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, filepath.Join(dir, "a.txt"), pages[0].Metadata["source"])
	assert.Equal(t, "Second file.", pages[1].Text)

	pages, err = LoadDir(dir, []string{"txt", "MD"}, Options{})
	require.NoError(t, err)
	assert.Len(t, pages, 3)
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"), []string{".pdf"}, Options{})
	assert.ErrorContains(t, err, "read dir")

	_, err = LoadDir(t.TempDir(), []string{".csv"}, Options{})
	assert.ErrorContains(t, err, "unsupported file extension: .csv")

	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "not a pdf")
	_, err = LoadDir(dir, []string{".pdf"}, Options{})
	assert.ErrorContains(t, err, "broken.pdf")
}
