package engine

import (
	"context"
	"fmt"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// analysis bundles everything a status check or an incremental update needs
// to decide what changed between a relationship's last translated version
// and the source graph right now.
type analysis struct {
	relationship *store.Relationship
	sourceEntry  *cmsclient.Entry
	targetEntry  *cmsclient.Entry
	schemaCache  *cmsclient.SchemaCache
	rootSchema   *cmsclient.ContentTypeSchema
	storedTree   *tracker.ReferenceTree
	currentTree  *tracker.ReferenceTree
	treeDiff     tracker.Diff
	rootChanges  []fieldvalue.FieldChange
	targetLocale string
}

func (a analysis) hasChanges() bool {
	return len(a.rootChanges) > 0 || len(a.treeDiff.Changed) > 0 || len(a.treeDiff.New) > 0 || len(a.treeDiff.Removed) > 0
}

// analyze fetches the relationship, both entries, builds the current tree,
// and diffs it against the stored snapshot -- steps 1, 3 and 4 of the
// incremental update algorithm, shared between Status (read-only) and
// IncrementalUpdate (which additionally mutates).
func (e *Engine) analyze(ctx context.Context, sourceID, targetID string) (*analysis, error) {
	rel, ok, _, err := e.store.Get(ctx, sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("lookup relationship: %w", err)
	}
	if !ok {
		return nil, nil
	}

	sourceEntry, err := e.cms.GetEntry(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("fetch source entry %q: %w", sourceID, err)
	}
	targetEntry, err := e.cms.GetEntry(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("fetch target entry %q: %w", targetID, err)
	}

	schemaCache := cmsclient.NewSchemaCache(e.cms)
	rootSchema, err := schemaCache.Get(ctx, sourceEntry.ContentTypeID)
	if err != nil {
		return nil, fmt.Errorf("fetch schema %q: %w", sourceEntry.ContentTypeID, err)
	}

	currentTree, err := e.tracker.BuildTree(ctx, sourceID, targetID, schemaCache)
	if err != nil {
		return nil, fmt.Errorf("build reference tree: %w", err)
	}

	storedTree, _, _, err := e.store.GetDeepMap(ctx, sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("fetch stored reference tree: %w", err)
	}

	currentRootHashes := tracker.FieldHashes(e.policy, rootSchema, sourceEntry)
	rootChanges := fieldvalue.DiffFieldHashes(rel.FieldHashes, currentRootHashes)

	targetLocale, _ := e.policy.LocaleForProvider(rel.TranslationContext.TargetLanguage)

	return &analysis{
		relationship: rel,
		sourceEntry:  sourceEntry,
		targetEntry:  targetEntry,
		schemaCache:  schemaCache,
		rootSchema:   rootSchema,
		storedTree:   storedTree,
		currentTree:  currentTree,
		treeDiff:     tracker.DiffTrees(storedTree, currentTree),
		rootChanges:  rootChanges,
		targetLocale: targetLocale,
	}, nil
}

// toChanges renders an analysis's diff into the API-facing Change list.
func toChanges(a *analysis) []Change {
	changes := make([]Change, 0, len(a.rootChanges)+len(a.treeDiff.Changed)+len(a.treeDiff.New)+len(a.treeDiff.Removed))
	for _, fc := range a.rootChanges {
		changes = append(changes, Change{Kind: ChangeKindField, FieldID: fc.FieldID, ChangeType: string(fc.ChangeType)})
	}
	for _, c := range a.treeDiff.Changed {
		changes = append(changes, Change{
			Kind: ChangeKindReferenceChanged, ReferenceID: c.ID, ParentField: c.ParentField, ChangeType: string(c.Tag),
		})
	}
	for _, n := range a.treeDiff.New {
		changes = append(changes, Change{Kind: ChangeKindReferenceNew, ReferenceID: n.ID, ParentField: n.ParentField})
	}
	for _, r := range a.treeDiff.Removed {
		changes = append(changes, Change{Kind: ChangeKindReferenceRemoved, ReferenceID: r.ID, ParentField: r.ParentField})
	}
	return changes
}
