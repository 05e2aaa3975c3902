package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
	"github.com/goliatone/go-cms-translate/internal/tracker"
)

// TranslationMetadataContentType is the dedicated CMS content type backing
// CMSStore.
const TranslationMetadataContentType = "translationMetadata"

// storageLocale is the fixed locale translationMetadata entries are stored
// under, matching the CMS's single stored locale for housekeeping data.
const storageLocale = "en-US-POSIX"

// payloadDocument is what CMSStore JSON-encodes into the "payload" field.
// translationMetadata is schema-light housekeeping data, not a translatable
// entry, so one opaque JSON field carries everything beyond the indexed
// lookup columns.
type payloadDocument struct {
	Metadata           Metadata               `json:"metadata"`
	TranslationContext TranslationContext     `json:"translationContext"`
	FieldHashes        map[string]string      `json:"fieldHashes"`
	CloneMapping       CloneMapping           `json:"cloneMapping"`
	DeepReferenceMap   *tracker.ReferenceTree `json:"deepReferenceMap,omitempty"`
	BackupData         []BackupData           `json:"backupData,omitempty"`
}

// CMSStore is the primary Relationship Store backend, persisting
// through the same cmsclient.Client the Engine uses so no second credential
// or connection is required.
type CMSStore struct {
	client cmsclient.Client
}

// NewCMSStore wraps client as the primary relationship backend.
func NewCMSStore(client cmsclient.Client) *CMSStore {
	return &CMSStore{client: client}
}

func toEntryFields(rel Relationship) (map[string]fieldvalue.Localized, error) {
	doc := payloadDocument{
		Metadata:           rel.Metadata,
		TranslationContext: rel.TranslationContext,
		FieldHashes:        rel.FieldHashes,
		CloneMapping:       rel.CloneMapping,
		DeepReferenceMap:   rel.DeepReferenceMap,
		BackupData:         rel.BackupData,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store/cms: marshal payload: %w", err)
	}

	field := func(s string) fieldvalue.Localized {
		return fieldvalue.Localized{storageLocale: fieldvalue.String(s)}
	}
	return map[string]fieldvalue.Localized{
		"relationshipId": field(rel.ID()),
		"sourceEntryId":  field(rel.SourceEntryID),
		"targetEntryId":  field(rel.TargetEntryID),
		"payload":        field(string(payload)),
	}, nil
}

func fromEntry(e *cmsclient.Entry) (*Relationship, error) {
	payloadField, ok := e.Fields["payload"]
	if !ok {
		return nil, fmt.Errorf("store/cms: entry %q missing payload field", e.ID)
	}
	raw, ok := payloadField.StringAt(storageLocale)
	if !ok {
		return nil, fmt.Errorf("store/cms: entry %q payload field has no value under %q", e.ID, storageLocale)
	}

	var doc payloadDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("store/cms: decode payload for entry %q: %w", e.ID, err)
	}

	sourceID, _ := e.Fields["sourceEntryId"].StringAt(storageLocale)
	targetID, _ := e.Fields["targetEntryId"].StringAt(storageLocale)

	return &Relationship{
		SourceEntryID:      sourceID,
		TargetEntryID:      targetID,
		Metadata:           doc.Metadata,
		TranslationContext: doc.TranslationContext,
		FieldHashes:        doc.FieldHashes,
		CloneMapping:       doc.CloneMapping,
		DeepReferenceMap:   doc.DeepReferenceMap,
		BackupData:         doc.BackupData,
	}, nil
}

func (s *CMSStore) findEntry(ctx context.Context, sourceID, targetID string) (*cmsclient.Entry, error) {
	results, err := s.client.GetEntries(ctx, cmsclient.Query{
		ContentTypeID: TranslationMetadataContentType,
		FieldEquals:   map[string]string{"relationshipId": RelationshipID(sourceID, targetID)},
		Limit:         1,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (s *CMSStore) Store(ctx context.Context, rel Relationship) error {
	existing, err := s.findEntry(ctx, rel.SourceEntryID, rel.TargetEntryID)
	if err != nil {
		return err
	}

	// An upsert carries forward what the caller did not resupply: createdAt,
	// the tree snapshot, and the backup history.
	if existing != nil {
		if prior, err := fromEntry(existing); err == nil {
			if rel.Metadata.CreatedAt.IsZero() {
				rel.Metadata.CreatedAt = prior.Metadata.CreatedAt
			}
			if rel.DeepReferenceMap == nil {
				rel.DeepReferenceMap = prior.DeepReferenceMap
			}
			if len(rel.BackupData) == 0 {
				rel.BackupData = prior.BackupData
			}
		}
	}
	if rel.Metadata.CreatedAt.IsZero() {
		rel.Metadata.CreatedAt = time.Now().UTC()
	}

	fields, err := toEntryFields(rel)
	if err != nil {
		return err
	}

	if existing == nil {
		_, err := s.client.CreateEntry(ctx, TranslationMetadataContentType, fields)
		return err
	}
	_, err = s.client.UpdateEntry(ctx, existing.ID, existing.Version, fields)
	return err
}

func (s *CMSStore) Get(ctx context.Context, sourceID, targetID string) (*Relationship, bool, error) {
	entry, err := s.findEntry(ctx, sourceID, targetID)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	rel, err := fromEntry(entry)
	if err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

func (s *CMSStore) StoreDeepMap(ctx context.Context, sourceID, targetID string, tree *tracker.ReferenceTree) error {
	rel, ok, err := s.Get(ctx, sourceID, targetID)
	if err != nil {
		return err
	}
	if !ok {
		rel = &Relationship{SourceEntryID: sourceID, TargetEntryID: targetID}
	}
	rel.DeepReferenceMap = tree
	return s.Store(ctx, *rel)
}

func (s *CMSStore) GetDeepMap(ctx context.Context, sourceID, targetID string) (*tracker.ReferenceTree, bool, error) {
	rel, ok, err := s.Get(ctx, sourceID, targetID)
	if err != nil || !ok || rel.DeepReferenceMap == nil {
		return nil, false, err
	}
	return rel.DeepReferenceMap, true, nil
}

func (s *CMSStore) StoreBackup(ctx context.Context, sourceID, targetID string, backup BackupData) error {
	rel, ok, err := s.Get(ctx, sourceID, targetID)
	if err != nil {
		return err
	}
	if !ok {
		rel = &Relationship{SourceEntryID: sourceID, TargetEntryID: targetID}
	}
	rel.BackupData = append(rel.BackupData, backup)
	return s.Store(ctx, *rel)
}

func (s *CMSStore) Delete(ctx context.Context, sourceID, targetID string) (bool, error) {
	entry, err := s.findEntry(ctx, sourceID, targetID)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if err := s.client.DeleteEntry(ctx, entry.ID, entry.Version); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CMSStore) ListBySource(ctx context.Context, sourceID string) ([]Relationship, error) {
	results, err := s.client.GetEntries(ctx, cmsclient.Query{
		ContentTypeID: TranslationMetadataContentType,
		FieldEquals:   map[string]string{"sourceEntryId": sourceID},
	})
	if err != nil {
		return nil, err
	}

	out := make([]Relationship, 0, len(results))
	for _, e := range results {
		rel, err := fromEntry(e)
		if err != nil {
			continue
		}
		out = append(out, *rel)
	}
	return out, nil
}
