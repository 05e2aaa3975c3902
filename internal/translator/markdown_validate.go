package translator

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdownEngine parses (but never renders) markdown to catch content the
// CMS stored as markdown but that parses as nothing useful, mirroring the
// GFM-extension configuration go-cms's importer uses for the same dialect.
var markdownEngine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// looksLikeMarkdown reports whether body parses into at least one goldmark
// block node, used to decide whether image-block scanning is worth doing at
// all before the engine spends a translator call on it.
func looksLikeMarkdown(body string) bool {
	source := []byte(body)
	doc := markdownEngine.Parser().Parse(text.NewReader(source))
	return doc.FirstChild() != nil
}
