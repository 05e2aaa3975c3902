package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// Relationships lists every relationship whose source is entryID.
func (e *Engine) Relationships(ctx context.Context, entryID string) ([]store.Relationship, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, fmt.Errorf("engine: entryId is required")
	}
	rels, _, err := e.store.ListBySource(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("engine: list relationships for %q: %w", entryID, err)
	}
	return rels, nil
}

// Backups returns the backup history involving entryID: snapshots taken on
// targets of relationships entryID is the source of, plus -- when sourceID
// names the owning source -- snapshots of entryID itself as a target.
func (e *Engine) Backups(ctx context.Context, entryID, sourceID string) ([]store.BackupData, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, fmt.Errorf("engine: entryId is required")
	}

	var out []store.BackupData
	rels, _, err := e.store.ListBySource(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("engine: list relationships for %q: %w", entryID, err)
	}
	for _, rel := range rels {
		out = append(out, rel.BackupData...)
	}

	if sourceID = strings.TrimSpace(sourceID); sourceID != "" {
		rel, ok, _, err := e.store.Get(ctx, sourceID, entryID)
		if err != nil {
			return nil, fmt.Errorf("engine: lookup relationship %q/%q: %w", sourceID, entryID, err)
		}
		if ok {
			for _, b := range rel.BackupData {
				if b.EntryID == entryID {
					out = append(out, b)
				}
			}
		}
	}
	return out, nil
}

// DeepReferenceStats summarizes a stored (or freshly rebuilt) reference tree
// for the deep-references endpoints.
type DeepReferenceStats struct {
	SourceEntryID   string
	TargetEntryID   string
	MaxDepth        int
	LastScanned     time.Time
	TotalReferences int
	ByDepth         map[int]int
}

func statsFromTree(tree *tracker.ReferenceTree) *DeepReferenceStats {
	stats := &DeepReferenceStats{
		SourceEntryID: tree.SourceEntryID,
		TargetEntryID: tree.TargetEntryID,
		MaxDepth:      tree.MaxDepth,
		LastScanned:   tree.LastScanned,
		ByDepth:       make(map[int]int),
	}
	for _, node := range tree.FlattenedRefs {
		if node.Depth == 0 {
			continue
		}
		stats.TotalReferences++
		stats.ByDepth[node.Depth]++
	}
	return stats
}

// DeepReferences reports stats over the stored tree snapshot for the pair.
// The boolean is false when no snapshot has been stored yet.
func (e *Engine) DeepReferences(ctx context.Context, sourceID, targetID string) (*DeepReferenceStats, bool, error) {
	sourceID, targetID = strings.TrimSpace(sourceID), strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return nil, false, fmt.Errorf("engine: sourceId and targetId are required")
	}
	tree, ok, _, err := e.store.GetDeepMap(ctx, sourceID, targetID)
	if err != nil {
		return nil, false, fmt.Errorf("engine: fetch stored reference tree %q/%q: %w", sourceID, targetID, err)
	}
	if !ok {
		return nil, false, nil
	}
	return statsFromTree(tree), true, nil
}

// RebuildDeepReferences builds a fresh tree from the source graph, persists
// it as the new stored snapshot, and reports its stats.
func (e *Engine) RebuildDeepReferences(ctx context.Context, sourceID, targetID string) (*DeepReferenceStats, error) {
	sourceID, targetID = strings.TrimSpace(sourceID), strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("engine: sourceId and targetId are required")
	}
	schemaCache := cmsclient.NewSchemaCache(e.cms)
	tree, err := e.tracker.BuildTree(ctx, sourceID, targetID, schemaCache)
	if err != nil {
		return nil, fmt.Errorf("engine: rebuild reference tree %q/%q: %w", sourceID, targetID, err)
	}
	if _, err := e.store.StoreDeepMap(ctx, sourceID, targetID, tree); err != nil {
		return nil, fmt.Errorf("engine: persist rebuilt reference tree %q/%q: %w", sourceID, targetID, err)
	}
	return statsFromTree(tree), nil
}
