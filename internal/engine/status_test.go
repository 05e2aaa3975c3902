package engine_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-translate/internal/engine"
)

func TestStatusWithoutRelationship(t *testing.T) {
	env := newTestEnv(t)
	seedPageGraph(t, env.cms)
	ctx := context.Background()

	status, err := env.eng.Status(ctx, engine.StatusRequest{SourceEntryID: "X", TargetEntryID: "nope"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.HasRelationship {
		t.Fatalf("expected no relationship, got %+v", status)
	}
}

func TestStatusReportsNoConflicts(t *testing.T) {
	env := newTestEnv(t)
	seedPageGraph(t, env.cms)
	targetID, _ := cloneFixture(t, env)
	ctx := context.Background()

	status, err := env.eng.Status(ctx, engine.StatusRequest{SourceEntryID: "X", TargetEntryID: targetID})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.HasRelationship || !status.UpToDate {
		t.Fatalf("expected a clean relationship, got %+v", status)
	}
	// Conflict detection is stubbed: never nil, always empty.
	if status.Conflicts == nil || len(status.Conflicts) != 0 {
		t.Fatalf("conflicts = %+v", status.Conflicts)
	}
}

func TestStatusByLanguageResolvesTarget(t *testing.T) {
	env := newTestEnv(t)
	seedPageGraph(t, env.cms)
	cloneFixture(t, env)
	ctx := context.Background()

	status, err := env.eng.StatusByLanguage(ctx, "X", "IT")
	if err != nil {
		t.Fatalf("status by language: %v", err)
	}
	if !status.HasRelationship {
		t.Fatalf("expected the IT relationship to resolve, got %+v", status)
	}

	status, err = env.eng.StatusByLanguage(ctx, "X", "FR")
	if err != nil {
		t.Fatalf("status by language: %v", err)
	}
	if status.HasRelationship {
		t.Fatalf("no FR clone exists, got %+v", status)
	}
}

func TestCleanStatusRefreshesTreeSnapshot(t *testing.T) {
	env := newTestEnv(t)
	seedPageGraph(t, env.cms)
	targetID, _ := cloneFixture(t, env)
	ctx := context.Background()

	// Drop E1 from the source. The diff reports it as removed, the update
	// reprojects it away, and the follow-up status -- now clean -- must leave
	// a snapshot that no longer carries E1.
	source := mustGetEntry(t, env.cms, "X")
	source.Version = 4
	source.Fields["elements"] = loc(listOf())
	env.cms.PutEntry(source)

	if _, err := env.eng.IncrementalUpdate(ctx, engine.IncrementalUpdateRequest{SourceEntryID: "X", TargetEntryID: targetID}); err != nil {
		t.Fatalf("update: %v", err)
	}

	status, err := env.eng.Status(ctx, engine.StatusRequest{SourceEntryID: "X", TargetEntryID: targetID})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.UpToDate {
		t.Fatalf("expected clean status, got %+v", status)
	}

	tree, ok, _, err := env.composite.GetDeepMap(ctx, "X", targetID)
	if err != nil || !ok {
		t.Fatalf("tree snapshot lookup: ok=%v err=%v", ok, err)
	}
	if _, stillThere := tree.FlattenedRefs["E1"]; stillThere {
		t.Fatalf("snapshot should no longer carry E1")
	}
}

func TestRelationshipsAndBackupsAccessors(t *testing.T) {
	env := newTestEnv(t)
	seedPageGraph(t, env.cms)
	targetID, _ := cloneFixture(t, env)
	ctx := context.Background()

	rels, err := env.eng.Relationships(ctx, "X")
	if err != nil {
		t.Fatalf("relationships: %v", err)
	}
	if len(rels) != 1 || rels[0].TargetEntryID != targetID {
		t.Fatalf("relationships = %+v", rels)
	}

	if _, err := env.eng.IncrementalUpdate(ctx, engine.IncrementalUpdateRequest{SourceEntryID: "X", TargetEntryID: targetID}); err != nil {
		t.Fatalf("update: %v", err)
	}

	backups, err := env.eng.Backups(ctx, "X", "")
	if err != nil {
		t.Fatalf("backups: %v", err)
	}
	if len(backups) == 0 || backups[0].EntryID != targetID {
		t.Fatalf("backups = %+v", backups)
	}

	// Addressed by target id plus owning source, the same history resolves.
	backups, err = env.eng.Backups(ctx, targetID, "X")
	if err != nil {
		t.Fatalf("backups by target: %v", err)
	}
	if len(backups) == 0 {
		t.Fatalf("expected backups when addressing the target with its source")
	}
}

func TestDeepReferenceStatsAndRebuild(t *testing.T) {
	env := newTestEnv(t)
	seedPageGraph(t, env.cms)
	targetID, _ := cloneFixture(t, env)
	ctx := context.Background()

	stats, ok, err := env.eng.DeepReferences(ctx, "X", targetID)
	if err != nil || !ok {
		t.Fatalf("deep references: ok=%v err=%v", ok, err)
	}
	if stats.TotalReferences != 1 || stats.ByDepth[1] != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	// Grow the graph, rebuild, and the stats must follow the fresh tree.
	source := mustGetEntry(t, env.cms, "X")
	source.Fields["elements"] = loc(listOf("E1", "E2"))
	env.cms.PutEntry(source)
	env.cms.PutEntry(newTextEntry("E2", "Noch mehr"))

	stats, err = env.eng.RebuildDeepReferences(ctx, "X", targetID)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if stats.TotalReferences != 2 {
		t.Fatalf("stats after rebuild = %+v", stats)
	}
}
