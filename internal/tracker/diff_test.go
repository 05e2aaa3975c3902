package tracker_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-cms-translate/internal/tracker"
)

func node(id string, version int, depth int, contentHash string, fieldHashes map[string]string) *tracker.ReferenceNode {
	return &tracker.ReferenceNode{
		ID: id, Version: version, Depth: depth, ContentHash: contentHash,
		FieldHashes: fieldHashes, LastUpdated: time.Unix(0, 0),
	}
}

func treeFrom(nodes ...*tracker.ReferenceNode) *tracker.ReferenceTree {
	flat := make(map[string]*tracker.ReferenceNode, len(nodes))
	for _, n := range nodes {
		flat[n.ID] = n
	}
	return &tracker.ReferenceTree{FlattenedRefs: flat}
}

func TestDiffClassifiesChangedNewRemoved(t *testing.T) {
	stored := treeFrom(
		node("X", 3, 0, "hX1", map[string]string{"title": "h1"}),
		node("E1", 1, 1, "hE1", map[string]string{"content": "h2"}),
	)
	current := treeFrom(
		node("X", 3, 0, "hX1", map[string]string{"title": "h1"}),
		node("E1", 2, 1, "hE1changed", map[string]string{"content": "h2changed"}),
		node("E2", 1, 1, "hE2", map[string]string{"content": "h3"}),
	)

	d := tracker.DiffTrees(stored, current)

	if len(d.Changed) != 1 || d.Changed[0].ID != "E1" {
		t.Fatalf("expected E1 changed, got %+v", d.Changed)
	}
	if d.Changed[0].Tag != tracker.ChangeTagVersionContent {
		t.Fatalf("expected version+content tag, got %v", d.Changed[0].Tag)
	}
	if len(d.Changed[0].FieldChanges) != 1 || d.Changed[0].FieldChanges[0].FieldID != "content" {
		t.Fatalf("expected content field change, got %+v", d.Changed[0].FieldChanges)
	}

	if len(d.New) != 1 || d.New[0].ID != "E2" {
		t.Fatalf("expected E2 new, got %+v", d.New)
	}
	if len(d.Removed) != 0 {
		t.Fatalf("expected no removals, got %+v", d.Removed)
	}
}

func TestDiffClassifiesRemoved(t *testing.T) {
	stored := treeFrom(
		node("X", 1, 0, "h", nil),
		node("E1", 1, 1, "h", nil),
	)
	current := treeFrom(
		node("X", 1, 0, "h", nil),
	)

	d := tracker.DiffTrees(stored, current)
	if len(d.Removed) != 1 || d.Removed[0].ID != "E1" {
		t.Fatalf("expected E1 removed, got %+v", d.Removed)
	}
}

func TestDiffNoStoredTreeReportsEverythingNew(t *testing.T) {
	current := treeFrom(node("X", 1, 0, "h", nil))
	d := tracker.DiffTrees(nil, current)
	if len(d.New) != 1 || d.New[0].ID != "X" {
		t.Fatalf("expected X reported new when there is no stored tree, got %+v", d.New)
	}
}

func TestDiffVersionOnlyTag(t *testing.T) {
	stored := treeFrom(node("X", 1, 0, "same", nil))
	current := treeFrom(node("X", 2, 0, "same", nil))

	d := tracker.DiffTrees(stored, current)
	if len(d.Changed) != 1 || d.Changed[0].Tag != tracker.ChangeTagVersion {
		t.Fatalf("expected version-only tag, got %+v", d.Changed)
	}
}
