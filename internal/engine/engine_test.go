package engine_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/cmsclient/cmsclienttest"
	"github.com/goliatone/go-cms-translate/internal/engine"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
	"github.com/goliatone/go-cms-translate/internal/policy"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
	"github.com/goliatone/go-cms-translate/internal/translator"
	"github.com/goliatone/go-cms-translate/internal/translator/translatortest"
)

const storageLocale = engine.DefaultStorageLocale

// loc wraps a value under the storage locale, the shape every stored entry
// field has in this deployment.
func loc(v fieldvalue.Value) fieldvalue.Localized {
	return fieldvalue.Localized{storageLocale: v}
}

// testEnv wires an Engine against the in-memory CMS and translator fakes,
// with the CMS-backed store as primary and a temp-dir file store as fallback.
type testEnv struct {
	cms       *cmsclienttest.Fake
	trans     *translatortest.Fake
	composite *store.Composite
	eng       *engine.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cms := cmsclienttest.New("tgt")
	trans := &translatortest.Fake{}
	fileStore, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	composite := store.NewComposite(store.NewCMSStore(cms), fileStore, nil)

	pol := policy.Default()
	trk := tracker.New(cms, pol, tracker.DefaultConfig())
	text := translator.NewTextTranslator(trans, pol.ClonePrefix, nil)
	markdown := translator.NewMarkdownTranslator(text)
	eng := engine.New(cms, composite, trk, pol, text, markdown, nil, engine.DefaultConfig())

	return &testEnv{cms: cms, trans: trans, composite: composite, eng: eng}
}

// seedPageGraph loads the two-level DE graph the first-clone scenario uses:
// cmsPage X -> scText E1, authors -> A1 (de-DE) with an it-IT counterpart A2.
func seedPageGraph(t *testing.T, cms *cmsclienttest.Fake) {
	t.Helper()

	cms.PutContentType(&cmsclient.ContentTypeSchema{ID: "cmsPage", Fields: []cmsclient.FieldSchema{
		{ID: "internalName", Type: cmsclient.FieldTypeSymbol},
		{ID: "title", Type: cmsclient.FieldTypeSymbol},
		{ID: "slug", Type: cmsclient.FieldTypeSymbol},
		{ID: "culture", Type: cmsclient.FieldTypeSymbol},
		{ID: "teaserText", Type: cmsclient.FieldTypeText},
		{ID: "authors", Type: cmsclient.FieldTypeArray},
		{ID: "elements", Type: cmsclient.FieldTypeArray},
	}})
	cms.PutContentType(&cmsclient.ContentTypeSchema{ID: "scText", Fields: []cmsclient.FieldSchema{
		{ID: "internalName", Type: cmsclient.FieldTypeSymbol},
		{ID: "content", Type: cmsclient.FieldTypeText},
	}})
	cms.PutContentType(&cmsclient.ContentTypeSchema{ID: "author", Fields: []cmsclient.FieldSchema{
		{ID: "name", Type: cmsclient.FieldTypeSymbol},
		{ID: "locale", Type: cmsclient.FieldTypeSymbol},
	}})

	cms.PutEntry(&cmsclient.Entry{
		ID: "X", ContentTypeID: "cmsPage", Version: 3,
		Fields: map[string]fieldvalue.Localized{
			"internalName": loc(fieldvalue.String("x-page")),
			"title":        loc(fieldvalue.String("Willkommen")),
			"slug":         loc(fieldvalue.String("willkommen")),
			"culture":      loc(fieldvalue.String("de-DE")),
			"teaserText":   loc(fieldvalue.String("## Hallo\n\n![Bild](https://cdn/a.jpg)")),
			"authors":      loc(fieldvalue.List(fieldvalue.EntryLink("A1"))),
			"elements":     loc(fieldvalue.List(fieldvalue.EntryLink("E1"))),
		},
	})
	cms.PutEntry(&cmsclient.Entry{
		ID: "A1", ContentTypeID: "author", Version: 1,
		Fields: map[string]fieldvalue.Localized{
			"name":   loc(fieldvalue.String("Anna")),
			"locale": loc(fieldvalue.String("de-DE")),
		},
	})
	cms.PutEntry(&cmsclient.Entry{
		ID: "A2", ContentTypeID: "author", Version: 1,
		Fields: map[string]fieldvalue.Localized{
			"name":   loc(fieldvalue.String("Anna")),
			"locale": loc(fieldvalue.String("it-IT")),
		},
	})
	cms.PutEntry(&cmsclient.Entry{
		ID: "E1", ContentTypeID: "scText", Version: 1,
		Fields: map[string]fieldvalue.Localized{
			"internalName": loc(fieldvalue.String("e1-text")),
			"content":      loc(fieldvalue.String("Mehr lesen")),
		},
	})
}

// listOf builds a list-of-entry-links value from ids.
func listOf(ids ...string) fieldvalue.Value {
	items := make([]fieldvalue.Value, len(ids))
	for i, id := range ids {
		items[i] = fieldvalue.EntryLink(id)
	}
	return fieldvalue.List(items...)
}

func newTextEntry(id, content string) *cmsclient.Entry {
	return &cmsclient.Entry{
		ID: id, ContentTypeID: "scText", Version: 1,
		Fields: map[string]fieldvalue.Localized{
			"content": loc(fieldvalue.String(content)),
		},
	}
}

func mustGetEntry(t *testing.T, cms *cmsclienttest.Fake, id string) *cmsclient.Entry {
	t.Helper()
	entry, err := cms.GetEntry(context.Background(), id)
	if err != nil {
		t.Fatalf("get entry %q: %v", id, err)
	}
	return entry
}

func stringField(t *testing.T, entry *cmsclient.Entry, fieldID string) string {
	t.Helper()
	s, ok := entry.Fields[fieldID].StringAt(storageLocale)
	if !ok {
		t.Fatalf("entry %q field %q has no string under %q: %+v", entry.ID, fieldID, storageLocale, entry.Fields[fieldID])
	}
	return s
}

func linkIDs(t *testing.T, entry *cmsclient.Entry, fieldID string) []string {
	t.Helper()
	links := entry.Fields[fieldID][storageLocale].Links()
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}
