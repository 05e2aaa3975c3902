package tracker

import (
	"sort"

	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
)

// ChangeTag distinguishes why a ref was classified "changed".
type ChangeTag string

const (
	ChangeTagVersion        ChangeTag = "version"
	ChangeTagContent        ChangeTag = "content"
	ChangeTagVersionContent ChangeTag = "version + content"
)

// ChangedRef is one entry present in both trees whose version or content
// hash moved.
type ChangedRef struct {
	ID           string
	Tag          ChangeTag
	Depth        int
	ParentID     string
	ParentField  string
	FieldChanges []fieldvalue.FieldChange
}

// NewRef is one entry present only in the current tree.
type NewRef struct {
	ID          string
	Depth       int
	ParentID    string
	ParentField string
}

// RemovedRef is one entry present only in the stored tree.
type RemovedRef struct {
	ID          string
	Depth       int
	ParentField string
}

// Diff is the result of comparing a fresh tree against the stored one.
type Diff struct {
	Changed []ChangedRef
	New     []NewRef
	Removed []RemovedRef
}

// DiffTrees compares a fresh tree against the stored snapshot. stored may
// be nil, in which case every current ref is reported as new (a first clone
// has no prior snapshot).
func DiffTrees(stored, current *ReferenceTree) Diff {
	var storedRefs map[string]*ReferenceNode
	if stored != nil {
		storedRefs = stored.FlattenedRefs
	}

	// Deterministic order: the order ids were discovered during BuildTree,
	// which is insertion order into FlattenedRefs. Go map iteration does not
	// preserve that, so we recover discovery order from depth then id as a
	// stable deterministic surrogate.
	ids := make([]string, 0, len(current.FlattenedRefs))
	for id := range current.FlattenedRefs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := current.FlattenedRefs[ids[i]], current.FlattenedRefs[ids[j]]
		if ni.Depth != nj.Depth {
			return ni.Depth < nj.Depth
		}
		return ids[i] < ids[j]
	})

	var result Diff
	for _, id := range ids {
		curNode := current.FlattenedRefs[id]
		storedNode, existed := storedRefs[id]
		if !existed {
			result.New = append(result.New, NewRef{
				ID: id, Depth: curNode.Depth, ParentID: curNode.ParentID, ParentField: curNode.ParentField,
			})
			continue
		}

		versionBumped := curNode.Version > storedNode.Version
		contentChanged := curNode.ContentHash != storedNode.ContentHash
		if !versionBumped && !contentChanged {
			continue
		}

		tag := ChangeTagContent
		switch {
		case versionBumped && contentChanged:
			tag = ChangeTagVersionContent
		case versionBumped:
			tag = ChangeTagVersion
		}

		result.Changed = append(result.Changed, ChangedRef{
			ID: id, Tag: tag, Depth: curNode.Depth, ParentID: curNode.ParentID, ParentField: curNode.ParentField,
			FieldChanges: fieldvalue.DiffFieldHashes(storedNode.FieldHashes, curNode.FieldHashes),
		})
	}

	if storedRefs != nil {
		removedIDs := make([]string, 0)
		for id := range storedRefs {
			if _, stillPresent := current.FlattenedRefs[id]; !stillPresent {
				removedIDs = append(removedIDs, id)
			}
		}
		sort.Strings(removedIDs)
		for _, id := range removedIDs {
			storedNode := storedRefs[id]
			result.Removed = append(result.Removed, RemovedRef{
				ID: id, Depth: storedNode.Depth, ParentField: storedNode.ParentField,
			})
		}
	}

	return result
}
