package loader

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/medbot/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader handles Markdown files using goldmark, one page per
// heading section.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.Reader, source string) ([]document.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	b := newSectionBuilder(source)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.heading(h.Level, string(h.Text(src)))
			continue
		}
		b.text(blockText(n, src))
	}
	return b.finish(), nil
}

// blockText gets the text content of a goldmark AST node. Leaf blocks
// (code) contribute their raw lines; everything else is built from its
// children, with nested blocks on separate lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		s := blockText(c, src)
		if c.Type() == ast.TypeBlock && buf.Len() > 0 && s != "" {
			buf.WriteByte('\n')
		}
		buf.WriteString(s)
	}
	return strings.TrimSpace(buf.String())
}
