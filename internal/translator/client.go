// Package translator defines the machine-translation port and the
// text/markdown translation operations built on top of it. internal/translator/deepl provides the concrete adapter.
package translator

import "context"

// Options mirror the provider options text calls carry.
type Options struct {
	PreserveFormatting bool
	TagHandling        string // "xml" when markdown-derived placeholders must survive untouched
}

// Usage reports translator quota, surfaced by GET /api/deepl/status.
type Usage struct {
	CharacterCount int
	CharacterLimit int
}

// Client is the machine-translation port.
type Client interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string, opts Options) (string, error)
	GetUsage(ctx context.Context) (Usage, error)
	GetSourceLanguages(ctx context.Context) ([]string, error)
	GetTargetLanguages(ctx context.Context) ([]string, error)
}
