package engine

import "github.com/goliatone/go-cms-translate/internal/store"

// CloneRequest is the input to Engine.Clone.
type CloneRequest struct {
	SourceEntryID  string
	SourceLanguage string // optional; auto-detected from the source entry's culture field when empty
	TargetLanguage string
}

// CloneResult is the outcome of a first clone.
type CloneResult struct {
	Success         bool
	OriginalEntryID string
	ClonedEntryID   string
	CloneMapping    map[string]string
	Error           string `json:",omitempty"`
}

// CloneManyRequest is the input to Engine.CloneMany: one source entry cloned
// into several target languages in sequence.
type CloneManyRequest struct {
	SourceEntryID   string
	SourceLanguage  string
	TargetLanguages []string
}

// CloneManyResult aggregates the per-language outcomes of a CloneMany run.
// OriginalEntryID/ClonedEntryID/CloneMapping mirror the first successful
// clone for callers that asked for a single language.
type CloneManyResult struct {
	OriginalEntryID string
	ClonedEntryID   string
	CloneMapping    map[string]string
	AllResults      []CloneResult
	TargetLocales   []string
}

// IncrementalUpdateRequest is the input to Engine.IncrementalUpdate.
type IncrementalUpdateRequest struct {
	SourceEntryID string
	TargetEntryID string
}

// IncrementalUpdateResult is the outcome of an incremental update.
type IncrementalUpdateResult struct {
	Success       bool
	FieldsUpdated []string
	BackupID      string
	NewVersion    *int
	Message       string
}

// StatusRequest is the input to Engine.Status.
type StatusRequest struct {
	SourceEntryID string
	TargetEntryID string
}

// ChangeKind discriminates the shape of one StatusResult.Changes entry.
type ChangeKind string

const (
	ChangeKindField            ChangeKind = "field"
	ChangeKindReferenceChanged ChangeKind = "reference_changed"
	ChangeKindReferenceNew     ChangeKind = "reference_new"
	ChangeKindReferenceRemoved ChangeKind = "reference_removed"
)

// Change describes one unit of drift between the stored relationship and
// the current source graph, at either the root level (Kind ==
// ChangeKindField) or a referenced entry (the other kinds).
type Change struct {
	Kind        ChangeKind
	FieldID     string `json:",omitempty"`
	ReferenceID string `json:",omitempty"`
	ParentField string `json:",omitempty"`
	ChangeType  string `json:",omitempty"`
}

// Conflict is reserved for future manual-edit conflict detection.
type Conflict struct {
	FieldID string
	Reason  string
}

// StatusResult is the outcome of Engine.Status.
type StatusResult struct {
	HasRelationship bool
	UpToDate        bool
	Changes         []Change
	Conflicts       []Conflict
	Metadata        *store.Metadata
}
