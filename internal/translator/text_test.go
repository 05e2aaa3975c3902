package translator_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-translate/internal/translator"
	"github.com/goliatone/go-cms-translate/internal/translator/translatortest"
)

func TestTranslateSkipsEmptyAndShortText(t *testing.T) {
	fake := &translatortest.Fake{}
	tr := translator.NewTextTranslator(fake, "[Clone] ", nil)

	if got := tr.Translate(context.Background(), "", "DE", "IT"); got != "" {
		t.Fatalf("expected empty text unchanged, got %q", got)
	}
	if got := tr.Translate(context.Background(), "a", "DE", "IT"); got != "a" {
		t.Fatalf("expected single-char text unchanged, got %q", got)
	}
	if fake.Calls != 0 {
		t.Fatalf("expected no translator calls for trivial text, got %d", fake.Calls)
	}
}

func TestTranslatePreservesClonePrefix(t *testing.T) {
	fake := &translatortest.Fake{}
	tr := translator.NewTextTranslator(fake, "[Clone] ", nil)

	got := tr.Translate(context.Background(), "[Clone] Willkommen", "DE", "IT")
	if got != "[Clone] WILLKOMMEN" {
		t.Fatalf("expected prefix preserved verbatim, got %q", got)
	}
}

func TestTranslateFallsBackToSourceOnError(t *testing.T) {
	fake := &translatortest.Fake{FailAll: true}
	tr := translator.NewTextTranslator(fake, "[Clone] ", nil)

	got := tr.Translate(context.Background(), "Willkommen im Team", "DE", "IT")
	if got != "Willkommen im Team" {
		t.Fatalf("expected source text preserved on translator failure, got %q", got)
	}
}
