package engine

import (
	"context"
	"fmt"
	"strings"
)

// StatusByLanguage resolves the relationship for (entryID, targetLanguage)
// and answers the same status check as Status. The status endpoint addresses
// relationships by language, not by target entry id, so the target is looked
// up through the stored relationships first.
func (e *Engine) StatusByLanguage(ctx context.Context, entryID, targetLanguage string) (*StatusResult, error) {
	entryID = strings.TrimSpace(entryID)
	targetLanguage = strings.ToUpper(strings.TrimSpace(targetLanguage))
	if entryID == "" || targetLanguage == "" {
		return nil, fmt.Errorf("engine: entryId and targetLanguage are required")
	}

	rels, _, err := e.store.ListBySource(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("engine: list relationships for %q: %w", entryID, err)
	}
	for _, rel := range rels {
		if strings.EqualFold(rel.TranslationContext.TargetLanguage, targetLanguage) {
			return e.Status(ctx, StatusRequest{SourceEntryID: rel.SourceEntryID, TargetEntryID: rel.TargetEntryID})
		}
	}
	return &StatusResult{HasRelationship: false}, nil
}

// Status answers a status check without mutating the target entry. It
// performs the same lookup, fetch, tree-build and diff steps an incremental
// update does, but conflict detection is a stub: the POC always reports no
// conflicts, and callers must not read more into that than "not implemented".
func (e *Engine) Status(ctx context.Context, req StatusRequest) (*StatusResult, error) {
	sourceID := strings.TrimSpace(req.SourceEntryID)
	targetID := strings.TrimSpace(req.TargetEntryID)
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("engine: sourceEntryId and targetEntryId are required")
	}

	a, err := e.analyze(ctx, sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("engine: status %q/%q: %w", sourceID, targetID, err)
	}
	if a == nil {
		return &StatusResult{HasRelationship: false}, nil
	}

	result := &StatusResult{
		HasRelationship: true,
		UpToDate:        !a.hasChanges(),
		Changes:         toChanges(a),
		Conflicts:       []Conflict{},
		Metadata:        &a.relationship.Metadata,
	}

	// Removals must be reflected even when no translatable change exists, so
	// a clean status check still refreshes the stored snapshot.
	if !a.hasChanges() {
		if _, err := e.store.StoreDeepMap(ctx, sourceID, targetID, a.currentTree); err != nil {
			e.logger.Warn("engine: failed to refresh reference tree snapshot on status check",
				"sourceId", sourceID, "targetId", targetID, "error", err)
		}
	}

	return result, nil
}
