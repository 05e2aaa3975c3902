package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
)

func newBunTestStore(t *testing.T) *store.BunStore {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", "file:bunstore_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	s := store.NewBunStore(db)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func TestBunStoreRoundTripsRelationship(t *testing.T) {
	s := newBunTestStore(t)
	ctx := context.Background()

	rel := store.Relationship{
		SourceEntryID: "X",
		TargetEntryID: "X-IT",
		Metadata:      store.Metadata{LastTranslatedVersion: 3},
		TranslationContext: store.TranslationContext{
			SourceLanguage: "DE", TargetLanguage: "IT",
		},
		FieldHashes:  map[string]string{"title": "h1"},
		CloneMapping: store.CloneMapping{store.EntryKey("X"): "X-IT"},
	}
	if err := s.Store(ctx, rel); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, ok, err := s.Get(ctx, "X", "X-IT")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected relationship to be found")
	}
	if got.Metadata.LastTranslatedVersion != 3 {
		t.Fatalf("expected lastTranslatedVersion 3, got %d", got.Metadata.LastTranslatedVersion)
	}
	if got.CloneMapping[store.EntryKey("X")] != "X-IT" {
		t.Fatalf("unexpected clone mapping: %+v", got.CloneMapping)
	}
	if got.Metadata.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be stamped on first store")
	}
}

func TestBunStoreUpsertPreservesCreatedAt(t *testing.T) {
	s := newBunTestStore(t)
	ctx := context.Background()

	first := store.Relationship{SourceEntryID: "X", TargetEntryID: "Y"}
	if err := s.Store(ctx, first); err != nil {
		t.Fatalf("store: %v", err)
	}
	stored, _, err := s.Get(ctx, "X", "Y")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	createdAt := stored.Metadata.CreatedAt

	second := store.Relationship{
		SourceEntryID: "X",
		TargetEntryID: "Y",
		Metadata:      store.Metadata{LastTranslatedVersion: 5, LastUpdated: time.Now().UTC()},
	}
	if err := s.Store(ctx, second); err != nil {
		t.Fatalf("store again: %v", err)
	}

	got, _, err := s.Get(ctx, "X", "Y")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if got.Metadata.LastTranslatedVersion != 5 {
		t.Fatalf("expected version bump to persist, got %d", got.Metadata.LastTranslatedVersion)
	}
	if !got.Metadata.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected createdAt %v to survive the upsert, got %v", createdAt, got.Metadata.CreatedAt)
	}
}

func TestBunStoreDeepMapAndBackupMergeIntoRelationship(t *testing.T) {
	s := newBunTestStore(t)
	ctx := context.Background()

	if err := s.Store(ctx, store.Relationship{SourceEntryID: "X", TargetEntryID: "Y"}); err != nil {
		t.Fatalf("store: %v", err)
	}

	tree := &tracker.ReferenceTree{
		SourceEntryID: "X",
		TargetEntryID: "Y",
		MaxDepth:      3,
		Root:          &tracker.ReferenceNode{ID: "X"},
		FlattenedRefs: map[string]*tracker.ReferenceNode{"X": {ID: "X"}},
	}
	if err := s.StoreDeepMap(ctx, "X", "Y", tree); err != nil {
		t.Fatalf("store deep map: %v", err)
	}
	if err := s.StoreBackup(ctx, "X", "Y", store.BackupData{EntryID: "Y", Version: 2, Reason: "pre-incremental-update", TakenAt: time.Now().UTC()}); err != nil {
		t.Fatalf("store backup: %v", err)
	}

	gotTree, ok, err := s.GetDeepMap(ctx, "X", "Y")
	if err != nil || !ok {
		t.Fatalf("get deep map: ok=%v err=%v", ok, err)
	}
	if gotTree.SourceEntryID != "X" || gotTree.Root == nil {
		t.Fatalf("unexpected tree: %+v", gotTree)
	}

	rel, _, err := s.Get(ctx, "X", "Y")
	if err != nil {
		t.Fatalf("get relationship: %v", err)
	}
	if rel.DeepReferenceMap == nil {
		t.Fatalf("expected deep map to merge into the relationship")
	}
	if len(rel.BackupData) != 1 || rel.BackupData[0].Reason != "pre-incremental-update" {
		t.Fatalf("unexpected backups: %+v", rel.BackupData)
	}
}

func TestBunStoreDeleteAndListBySource(t *testing.T) {
	s := newBunTestStore(t)
	ctx := context.Background()

	for _, targetID := range []string{"A", "B"} {
		if err := s.Store(ctx, store.Relationship{SourceEntryID: "X", TargetEntryID: targetID}); err != nil {
			t.Fatalf("store %q: %v", targetID, err)
		}
	}
	if err := s.Store(ctx, store.Relationship{SourceEntryID: "other", TargetEntryID: "C"}); err != nil {
		t.Fatalf("store other: %v", err)
	}

	rels, err := s.ListBySource(ctx, "X")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 relationships for X, got %d", len(rels))
	}

	deleted, err := s.Delete(ctx, "X", "A")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report true")
	}
	deleted, err = s.Delete(ctx, "X", "A")
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	if deleted {
		t.Fatalf("expected second delete to report false")
	}

	rels, err = s.ListBySource(ctx, "X")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(rels) != 1 || rels[0].TargetEntryID != "B" {
		t.Fatalf("unexpected relationships after delete: %+v", rels)
	}
}
