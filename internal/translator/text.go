package translator

import (
	"context"
	"strings"
	"unicode"

	"github.com/goliatone/go-cms-translate/pkg/interfaces"
)

// TextTranslator implements the plain-text translation step on
// top of a Client, handling the empty/short-text skip and clone-prefix
// round-trip that every call-site needs regardless of adapter.
type TextTranslator struct {
	client      Client
	clonePrefix string
	logger      interfaces.Logger
}

// NewTextTranslator builds a TextTranslator. logger may be nil.
func NewTextTranslator(client Client, clonePrefix string, logger interfaces.Logger) *TextTranslator {
	return &TextTranslator{client: client, clonePrefix: clonePrefix, logger: logger}
}

// nonSpaceRuneCount counts runes in s that are not whitespace.
func nonSpaceRuneCount(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// Translate short-circuits on trivial text, strips and re-prepends the
// clone prefix around translation, and falls back to the original text on
// any translator error (best-effort, never aborts a clone).
func (t *TextTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) string {
	return t.TranslateWithOptions(ctx, text, sourceLang, targetLang, Options{PreserveFormatting: true})
}

// TranslateWithOptions is Translate with explicit provider options, used by
// the markdown path to additionally request tag-safe handling around its
// placeholders.
func (t *TextTranslator) TranslateWithOptions(ctx context.Context, text, sourceLang, targetLang string, opts Options) string {
	if text == "" || nonSpaceRuneCount(text) < 2 {
		return text
	}

	prefix := ""
	body := text
	if t.clonePrefix != "" && strings.HasPrefix(text, t.clonePrefix) {
		prefix = t.clonePrefix
		body = strings.TrimPrefix(text, t.clonePrefix)
	}

	translated, err := t.client.TranslateText(ctx, body, sourceLang, targetLang, opts)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("translator: text translation failed, keeping source text",
				"sourceLang", sourceLang, "targetLang", targetLang, "error", err)
		}
		return text
	}
	return prefix + translated
}
