package translator

import (
	"context"
	"fmt"
	"regexp"
)

// imagePattern matches markdown image blocks ![caption](url).
// goldmark's AST has no markdown-serialization path (it renders to HTML
// only), so a regexp scan is what preserves the original markdown bytes
// byte-for-byte around each placeholder instead of re-rendering the whole
// document (see DESIGN.md for the stdlib justification).
var imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)

type imageBlock struct {
	placeholder string
	caption     string
	url         string
}

// MarkdownTranslator implements markdown translation: image
// blocks are placeholdered before the single translate-the-body call, then
// captions are translated independently and spliced back in verbatim with
// their original (untranslated) urls.
type MarkdownTranslator struct {
	text *TextTranslator
}

// NewMarkdownTranslator builds a MarkdownTranslator reusing text's
// empty/short-circuit and clone-prefix handling.
func NewMarkdownTranslator(text *TextTranslator) *MarkdownTranslator {
	return &MarkdownTranslator{text: text}
}

// Translate replaces every image block in markdown with a numbered
// placeholder, translates the remaining text, then splices each block back
// with its caption translated and its original URL byte for byte, so
// translation never touches image URLs. Other link targets stay in the body
// that is sent to the translator.
func (m *MarkdownTranslator) Translate(ctx context.Context, markdown, sourceLang, targetLang string) string {
	if markdown == "" {
		return markdown
	}

	if !looksLikeMarkdown(markdown) {
		return m.text.Translate(ctx, markdown, sourceLang, targetLang)
	}

	var blocks []imageBlock
	placeholdered := imagePattern.ReplaceAllStringFunc(markdown, func(match string) string {
		sub := imagePattern.FindStringSubmatch(match)
		placeholder := fmt.Sprintf("\x00IMG_PLACEHOLDER_%d\x00", len(blocks))
		blocks = append(blocks, imageBlock{placeholder: placeholder, caption: sub[1], url: sub[2]})
		return placeholder
	})

	translatedBody := m.text.TranslateWithOptions(ctx, placeholdered, sourceLang, targetLang, Options{
		PreserveFormatting: true,
		TagHandling:        "xml",
	})

	for _, b := range blocks {
		translatedCaption := m.text.Translate(ctx, b.caption, sourceLang, targetLang)
		reconstructed := fmt.Sprintf("![%s](%s)", translatedCaption, b.url)
		translatedBody = replaceFirst(translatedBody, b.placeholder, reconstructed)
	}
	return translatedBody
}

func replaceFirst(s, old, new string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		// The provider mangled or dropped the placeholder; keep the body as
		// returned rather than guessing a splice point.
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
