package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
	"github.com/goliatone/go-cms-translate/internal/policy"
	"github.com/goliatone/go-cms-translate/internal/store"
	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// IncrementalUpdate propagates source-entry changes onto an already-cloned
// target: changed translatable fields on mapped descendants are retranslated,
// newly added references are cloned, removed ones are dropped from the
// parent's link list, and the root entry's own changed fields are
// retranslated too. Concurrent calls for the same (sourceId, targetId) pair
// are serialized with single-flight so a racing pair of requests can't
// interleave writes to the same relationship.
func (e *Engine) IncrementalUpdate(ctx context.Context, req IncrementalUpdateRequest) (*IncrementalUpdateResult, error) {
	sourceID := strings.TrimSpace(req.SourceEntryID)
	targetID := strings.TrimSpace(req.TargetEntryID)
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("engine: sourceEntryId and targetEntryId are required")
	}

	key := store.RelationshipID(sourceID, targetID)
	v, err, _ := e.sf.Do(key, func() (any, error) {
		return e.runIncrementalUpdate(ctx, sourceID, targetID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*IncrementalUpdateResult), nil
}

// runIncrementalUpdate is the single-flight body. Only unexpected plumbing
// errors (relationship lookup, unreachable CMS) escape as a Go error;
// business-logic failures come back as {Success:false}, never as an error,
// so a partial failure never rolls back work already committed.
func (e *Engine) runIncrementalUpdate(ctx context.Context, sourceID, targetID string) (*IncrementalUpdateResult, error) {
	a, err := e.analyze(ctx, sourceID, targetID)
	if err != nil {
		return nil, fmt.Errorf("engine: incremental update %q/%q: %w", sourceID, targetID, err)
	}
	if a == nil {
		return &IncrementalUpdateResult{Success: false, FieldsUpdated: []string{}, Message: "no relationship exists for this source/target pair"}, nil
	}

	backupID, err := e.snapshotBackup(ctx, sourceID, targetID, a.targetEntry, "pre-incremental-update")
	if err != nil {
		e.logger.Warn("engine: failed to snapshot target before incremental update",
			"sourceId", sourceID, "targetId", targetID, "error", err)
	}

	if !a.hasChanges() {
		if _, err := e.store.StoreDeepMap(ctx, sourceID, targetID, a.currentTree); err != nil {
			e.logger.Warn("engine: failed to refresh reference tree snapshot", "sourceId", sourceID, "error", err)
		}
		return &IncrementalUpdateResult{Success: true, FieldsUpdated: []string{}, BackupID: backupID, Message: "up to date"}, nil
	}

	run := newCloneRun(a.schemaCache, map[string]string(a.relationship.CloneMapping), a.relationship.TranslationContext, e.storageLocale, a.targetLocale, e.policy, e.logger)

	var childFieldsUpdated []string
	for _, changed := range a.treeDiff.Changed {
		// The tree's flattened refs include the root itself, but root-field
		// changes belong to the rootChanges/reprojectRootFields path; patching
		// the root here too would write it twice with a stale version.
		if changed.ID == sourceID {
			continue
		}
		patched, err := e.applyChangedReference(ctx, run, changed)
		if err != nil {
			e.logger.Warn("engine: failed to apply changed reference, leaving target child untouched",
				"sourceId", sourceID, "refId", changed.ID, "error", err)
			continue
		}
		for _, fieldID := range patched {
			childFieldsUpdated = append(childFieldsUpdated, changed.ID+"."+fieldID)
		}
	}

	for _, added := range a.treeDiff.New {
		if _, err := e.cloneEntry(ctx, run, added.ID); err != nil {
			e.logger.Warn("engine: failed to clone new reference, parent link left unresolved",
				"sourceId", sourceID, "refId", added.ID, "error", err)
		}
	}
	e.rewriteResidualLinks(ctx, run)
	// Removed references need no translation work: omitting them from the
	// re-projection below is what drops them from the parent's link list.

	rootFieldsUpdated, newVersion, err := e.reprojectRootFields(ctx, run, a)
	if err != nil {
		return &IncrementalUpdateResult{Success: false, FieldsUpdated: []string{}, BackupID: backupID,
			Message: fmt.Sprintf("failed to update target entry: %v", err)}, nil
	}
	fieldsUpdated := append(childFieldsUpdated, rootFieldsUpdated...)
	if fieldsUpdated == nil {
		fieldsUpdated = []string{}
	}

	newRel := store.Relationship{
		SourceEntryID: sourceID,
		TargetEntryID: targetID,
		Metadata: store.Metadata{
			LastTranslatedVersion: a.sourceEntry.Version,
			CreatedAt:             a.relationship.Metadata.CreatedAt,
			LastUpdated:           time.Now().UTC(),
		},
		TranslationContext: a.relationship.TranslationContext,
		FieldHashes:        tracker.FieldHashes(e.policy, a.rootSchema, a.sourceEntry),
		CloneMapping:       store.CloneMapping(run.cloneMap),
	}
	if _, err := e.store.Store(ctx, newRel); err != nil {
		return &IncrementalUpdateResult{Success: false, FieldsUpdated: []string{}, BackupID: backupID,
			Message: fmt.Sprintf("target updated but failed to persist relationship: %v", err)}, nil
	}
	if _, err := e.store.StoreDeepMap(ctx, sourceID, targetID, a.currentTree); err != nil {
		e.logger.Warn("engine: failed to persist new reference tree snapshot", "sourceId", sourceID, "error", err)
	}

	return &IncrementalUpdateResult{
		Success:       true,
		FieldsUpdated: fieldsUpdated,
		BackupID:      backupID,
		NewVersion:    newVersion,
		Message:       "updated",
	}, nil
}

// isEmptyList reports whether the value is a list with no elements.
func isEmptyList(localized fieldvalue.Localized) bool {
	v := firstLocaleValue(localized)
	return v.Kind == fieldvalue.KindList && len(v.List) == 0
}

// snapshotBackup takes a point-in-time copy of target's fields before any
// mutation, tagging it with reason and timestamp.
func (e *Engine) snapshotBackup(ctx context.Context, sourceID, targetID string, target *cmsclient.Entry, reason string) (string, error) {
	fields := make(map[string]any, len(target.Fields))
	for id, localized := range target.Fields {
		fields[id] = localized
	}

	takenAt := time.Now().UTC()
	backup := store.BackupData{
		EntryID: target.ID,
		Version: target.Version,
		Fields:  fields,
		Reason:  reason,
		TakenAt: takenAt,
	}
	if _, err := e.store.StoreBackup(ctx, sourceID, targetID, backup); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", target.ID, takenAt.Format("20060102T150405.000Z")), nil
}

// applyChangedReference translates only the fields the diff marked
// added/modified on the mapped target child, leaving everything else on that
// child entry untouched. Returns the child field ids written.
func (e *Engine) applyChangedReference(ctx context.Context, run *cloneRun, changed tracker.ChangedRef) ([]string, error) {
	targetChildID, ok := run.cloneMap[store.EntryKey(changed.ID)]
	if !ok {
		return nil, fmt.Errorf("no clone mapping for changed reference %q", changed.ID)
	}

	sourceChild, err := e.cms.GetEntry(ctx, changed.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch source reference %q: %w", changed.ID, err)
	}
	targetChild, err := e.cms.GetEntry(ctx, targetChildID)
	if err != nil {
		return nil, fmt.Errorf("fetch target reference %q: %w", targetChildID, err)
	}

	patched := make(map[string]fieldvalue.Localized, len(targetChild.Fields))
	for id, v := range targetChild.Fields {
		patched[id] = v
	}

	var touched []string
	for _, fc := range changed.FieldChanges {
		if fc.ChangeType == fieldvalue.FieldDeleted {
			continue
		}
		localized, ok := sourceChild.Fields[fc.FieldID]
		if !ok {
			continue
		}
		kind := run.policy.Classify(sourceChild.ContentTypeID, fc.FieldID, localized)
		value, ok := e.transformField(ctx, run, sourceChild.ContentTypeID, kind, localized)
		if !ok {
			continue
		}
		if run.policy.IsPrefixField(fc.FieldID) {
			value = applyPrefix(value, run.policy.ClonePrefix)
		}
		patched[fc.FieldID] = value
		touched = append(touched, fc.FieldID)
	}
	if len(touched) == 0 {
		return nil, nil
	}

	if _, err := e.cms.UpdateEntry(ctx, targetChildID, targetChild.Version, patched); err != nil {
		return nil, err
	}
	return touched, nil
}

// reprojectRootFields recomputes every root-level link field against run's
// (possibly grown) clone map and writes it onto the target entry, alongside
// retranslation of any root-level field the diff marked added/modified.
// Returns the field ids written and the target entry's version after the
// update (nil when nothing needed writing).
func (e *Engine) reprojectRootFields(ctx context.Context, run *cloneRun, a *analysis) ([]string, *int, error) {
	patched := make(map[string]fieldvalue.Localized, len(a.targetEntry.Fields))
	for id, v := range a.targetEntry.Fields {
		patched[id] = v
	}

	var updated []string

	for _, fieldSchema := range a.rootSchema.Fields {
		localized, present := a.sourceEntry.Fields[fieldSchema.ID]
		if !present {
			continue
		}
		// An emptied link list still has to re-project, or the target would
		// keep links the source no longer carries.
		if !localized.HasLinks() && !isEmptyList(localized) {
			continue
		}
		kind := run.policy.Classify(a.sourceEntry.ContentTypeID, fieldSchema.ID, localized)
		var rewritten fieldvalue.Localized
		if kind == policy.FieldAuthor {
			rewritten = e.rewriteAuthorLinksValue(ctx, run, localized)
		} else {
			rewritten = e.rewriteLinksValue(ctx, run, localized)
		}
		// Only a re-projection that actually moves the field counts as an
		// update; otherwise an untouched root would still get a version bump.
		if fieldvalue.Hash(rewritten) == fieldvalue.Hash(a.targetEntry.Fields[fieldSchema.ID]) {
			continue
		}
		patched[fieldSchema.ID] = rewritten
		updated = append(updated, fieldSchema.ID)
	}

	for _, fc := range a.rootChanges {
		if fc.ChangeType == fieldvalue.FieldDeleted {
			continue
		}
		localized, ok := a.sourceEntry.Fields[fc.FieldID]
		if !ok {
			continue
		}
		kind := run.policy.Classify(a.sourceEntry.ContentTypeID, fc.FieldID, localized)
		value, ok := e.transformField(ctx, run, a.sourceEntry.ContentTypeID, kind, localized)
		if !ok {
			continue
		}
		if run.policy.IsPrefixField(fc.FieldID) {
			value = applyPrefix(value, run.policy.ClonePrefix)
		}
		patched[fc.FieldID] = value
		updated = append(updated, fc.FieldID)
	}

	if len(updated) == 0 {
		return updated, nil, nil
	}

	updatedEntry, err := e.cms.UpdateEntry(ctx, a.targetEntry.ID, a.targetEntry.Version, patched)
	if err != nil {
		return nil, nil, err
	}
	version := updatedEntry.Version
	return updated, &version, nil
}
