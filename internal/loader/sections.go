package loader

import (
	"strings"

	"github.com/dgallion1/medbot/internal/document"
)

// sectionBuilder collects text under headings and emits one page per
// section. A section's metadata carries the heading trail, e.g.
// "Diabetes > Symptoms".
type sectionBuilder struct {
	source string
	trail  []heading
	body   strings.Builder
	pages  []document.Page
}

type heading struct {
	level int
	title string
}

func newSectionBuilder(source string) *sectionBuilder {
	return &sectionBuilder{source: source}
}

// heading closes the current section and opens a new one at level.
func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	for len(b.trail) > 0 && b.trail[len(b.trail)-1].level >= level {
		b.trail = b.trail[:len(b.trail)-1]
	}
	b.trail = append(b.trail, heading{level: level, title: strings.TrimSpace(title)})
}

func (b *sectionBuilder) text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.body.Len() > 0 {
		b.body.WriteString("\n\n")
	}
	b.body.WriteString(t)
}

func (b *sectionBuilder) flush() {
	body := strings.TrimSpace(b.body.String())
	b.body.Reset()
	if body == "" {
		return
	}

	meta := map[string]any{"source": b.source}
	text := body
	if len(b.trail) > 0 {
		titles := make([]string, len(b.trail))
		for i, h := range b.trail {
			titles[i] = h.title
		}
		meta["section"] = strings.Join(titles, " > ")
		text = b.trail[len(b.trail)-1].title + "\n\n" + body
	}
	b.pages = append(b.pages, document.Page{Text: text, Metadata: meta})
}

func (b *sectionBuilder) finish() []document.Page {
	b.flush()
	return b.pages
}
