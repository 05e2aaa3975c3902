package fieldvalue_test

import (
	"testing"

	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

func TestHashIsStableAcrossMapIterationOrder(t *testing.T) {
	a := fieldvalue.Localized{
		"de-DE": fieldvalue.String("Willkommen"),
		"en-GB": fieldvalue.String("Welcome"),
	}
	b := fieldvalue.Localized{
		"en-GB": fieldvalue.String("Welcome"),
		"de-DE": fieldvalue.String("Willkommen"),
	}

	if fieldvalue.Hash(a) != fieldvalue.Hash(b) {
		t.Fatalf("expected stable hash regardless of map order")
	}
}

func TestHashChangesWithContent(t *testing.T) {
	a := fieldvalue.Localized{"de-DE": fieldvalue.String("Willkommen")}
	b := fieldvalue.Localized{"de-DE": fieldvalue.String("Willkommen!")}

	if fieldvalue.Hash(a) == fieldvalue.Hash(b) {
		t.Fatalf("expected different hashes for different content")
	}
}

func TestHashIgnoresKeyOrderWithinObject(t *testing.T) {
	a := fieldvalue.Localized{
		"de-DE": fieldvalue.Object(map[string]fieldvalue.Value{
			"a": fieldvalue.String("1"),
			"b": fieldvalue.String("2"),
		}),
	}
	b := fieldvalue.Localized{
		"de-DE": fieldvalue.Object(map[string]fieldvalue.Value{
			"b": fieldvalue.String("2"),
			"a": fieldvalue.String("1"),
		}),
	}
	if fieldvalue.Hash(a) != fieldvalue.Hash(b) {
		t.Fatalf("expected object key order to not affect hash")
	}
}

func TestDiffFieldHashesClassifiesAddedModifiedDeleted(t *testing.T) {
	stored := map[string]string{"title": "h1", "summary": "h2"}
	current := map[string]string{"title": "h1-changed", "body": "h3"}

	changes := fieldvalue.DiffFieldHashes(stored, current)

	byField := map[string]fieldvalue.FieldChangeType{}
	for _, c := range changes {
		byField[c.FieldID] = c.ChangeType
	}

	if byField["title"] != fieldvalue.FieldModified {
		t.Fatalf("expected title modified, got %v", byField["title"])
	}
	if byField["body"] != fieldvalue.FieldAdded {
		t.Fatalf("expected body added, got %v", byField["body"])
	}
	if byField["summary"] != fieldvalue.FieldDeleted {
		t.Fatalf("expected summary deleted, got %v", byField["summary"])
	}
}

func TestValueLinksAndWithLinks(t *testing.T) {
	v := fieldvalue.List(fieldvalue.EntryLink("e1"), fieldvalue.EntryLink("e2"))
	if !v.IsListOfLinks() {
		t.Fatalf("expected list of links")
	}
	links := v.Links()
	if len(links) != 2 || links[0].ID != "e1" || links[1].ID != "e2" {
		t.Fatalf("unexpected links: %+v", links)
	}

	rewritten := v.WithLinks(func(l fieldvalue.Link) (fieldvalue.Link, bool) {
		if l.ID == "e1" {
			return fieldvalue.Link{LinkType: l.LinkType, ID: "e1-target"}, true
		}
		return l, false
	})
	got := rewritten.Links()
	if got[0].ID != "e1-target" {
		t.Fatalf("expected e1 rewritten, got %q", got[0].ID)
	}
	if len(got) != 1 {
		t.Fatalf("expected removal dropped non-rewritten link, got %+v", got)
	}
}
