// Package store implements the Relationship Store: a CMS-backed
// primary persisted through cmsclient.Client, a file-backed fallback using
// atomic rename-on-close writes, and a Composite that tries primary first
// and reports which backend answered.
package store

import (
	"time"

	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// Metadata carries the relationship's lifecycle timestamps.
type Metadata struct {
	LastTranslatedVersion int
	CreatedAt             time.Time
	LastUpdated           time.Time
}

// TranslationContext is the provider-language-code pair a relationship was
// created with.
type TranslationContext struct {
	SourceLanguage string
	TargetLanguage string
}

// CloneMapping maps "Entry:<sourceId>" / "Asset:<id>" keys to target ids.
type CloneMapping map[string]string

// EntryKey builds the CloneMapping key for an entry link.
func EntryKey(id string) string { return "Entry:" + id }

// AssetKey builds the CloneMapping key for an asset link (always identity).
func AssetKey(id string) string { return "Asset:" + id }

// BackupData is a point-in-time snapshot of the target entry taken before an
// incremental update mutates it.
type BackupData struct {
	EntryID string
	Version int
	Fields  map[string]any
	Reason  string
	TakenAt time.Time
}

// Relationship is the persisted record tying one source entry to one target
// entry.
type Relationship struct {
	SourceEntryID      string
	TargetEntryID      string
	Metadata           Metadata
	TranslationContext TranslationContext
	FieldHashes        map[string]string
	CloneMapping       CloneMapping
	DeepReferenceMap   *tracker.ReferenceTree
	BackupData         []BackupData
}

// ID returns the unique relationshipId.
func (r Relationship) ID() string {
	return RelationshipID(r.SourceEntryID, r.TargetEntryID)
}

// RelationshipID builds the unique identity key for a (source, target) pair.
func RelationshipID(sourceID, targetID string) string {
	return sourceID + "_" + targetID
}
