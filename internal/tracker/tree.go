// Package tracker builds bounded-depth reference trees rooted at a CMS entry
// and diffs a fresh tree against a stored snapshot to classify referenced
// entries as changed, new, or removed.
package tracker

import "time"

// ReferenceNode is one node of a ReferenceTree. FieldHashes carries
// the per-field content hashes alongside the aggregate ContentHash; the diff
// step needs per-field granularity for non-root nodes, which the
// base data model only states explicitly for the root Relationship.
type ReferenceNode struct {
	ID          string
	Version     int
	Depth       int
	ParentID    string
	ParentField string
	ContentHash string
	FieldHashes map[string]string
	LastUpdated time.Time
	Children    []*ReferenceNode
}

// ReferenceTree is a bounded-depth snapshot of the graph reachable from a
// source entry.
type ReferenceTree struct {
	SourceEntryID string
	TargetEntryID string
	MaxDepth      int
	LastScanned   time.Time
	Root          *ReferenceNode
	FlattenedRefs map[string]*ReferenceNode
}

// flatten walks root and every descendant, recording each as a childless
// copy keyed by id. The first occurrence wins: pre-order DFS visits an id at
// its shallowest position before any cycle stub repeats it deeper.
func flatten(root *ReferenceNode) map[string]*ReferenceNode {
	out := make(map[string]*ReferenceNode)
	var walk func(n *ReferenceNode)
	walk = func(n *ReferenceNode) {
		if n == nil {
			return
		}
		if _, seen := out[n.ID]; !seen {
			leaf := *n
			leaf.Children = nil
			out[n.ID] = &leaf
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}
