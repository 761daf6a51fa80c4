package document

// Page is a unit of raw text as produced by a loader, e.g. one PDF page.
type Page struct {
	Text     string         // Extracted text
	Metadata map[string]any // Loader metadata: source, page, total_pages, section
}

// Document is the minimal form of a page kept for indexing.
type Document struct {
	Text   string
	Source string // Empty when the page had no source
}

// Chunk is a fixed-size window of a document's text, the unit of retrieval.
type Chunk struct {
	ID     string // Stable vector id, "doc-{Index}"
	Text   string
	Source string
	Index  int // Ordinal across the whole indexing run
}

// Minimize projects pages to {text, source}, dropping all other metadata.
func Minimize(pages []Page) []Document {
	docs := make([]Document, 0, len(pages))
	for _, p := range pages {
		src, _ := p.Metadata["source"].(string)
		docs = append(docs, Document{
			Text:   p.Text,
			Source: src,
		})
	}
	return docs
}
