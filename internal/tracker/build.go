package tracker

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-cms-translate/internal/cmsclient"
	"github.com/goliatone/go-cms-translate/internal/fieldvalue"
	"github.com/goliatone/go-cms-translate/internal/policy"
)

// Config configures one Tracker.
type Config struct {
	MaxDepth             int
	AutoTranslateNewRefs bool
}

// DefaultConfig returns the design defaults (maxDepth 3, autoTranslateNewRefs true).
func DefaultConfig() Config {
	return Config{MaxDepth: 3, AutoTranslateNewRefs: true}
}

// Tracker builds and diffs reference trees. It depends only on cmsclient.Client
// and policy.Policy, so BuildTree/Diff are unit-testable without a process
// boundary.
type Tracker struct {
	client cmsclient.Client
	policy policy.Policy
	config Config
}

// New builds a Tracker.
func New(client cmsclient.Client, p policy.Policy, cfg Config) *Tracker {
	return &Tracker{client: client, policy: p, config: cfg}
}

// BuildTree walks depth-first from rootID, stopping at MaxDepth, skipping
// assets entirely, and following only trackable link fields. schemaCache is
// reused across the whole request.
func (t *Tracker) BuildTree(ctx context.Context, rootID, targetID string, schemaCache *cmsclient.SchemaCache) (*ReferenceTree, error) {
	visiting := make(map[string]bool)
	root, err := t.visit(ctx, rootID, 0, "", "", visiting, schemaCache)
	if err != nil {
		return nil, err
	}
	return &ReferenceTree{
		SourceEntryID: rootID,
		TargetEntryID: targetID,
		MaxDepth:      t.config.MaxDepth,
		LastScanned:   time.Now().UTC(),
		Root:          root,
		FlattenedRefs: flatten(root),
	}, nil
}

func (t *Tracker) visit(ctx context.Context, id string, depth int, parentID, parentField string, visiting map[string]bool, schemaCache *cmsclient.SchemaCache) (*ReferenceNode, error) {
	entry, err := t.client.GetEntry(ctx, id)
	if err != nil {
		// Partial.Reference: caller treats this as "skip that subtree, continue".
		return nil, err
	}

	translatableFields := t.translatableFields(ctx, entry, schemaCache)
	node := &ReferenceNode{
		ID:          id,
		Version:     entry.Version,
		Depth:       depth,
		ParentID:    parentID,
		ParentField: parentField,
		ContentHash: hashTranslatableFields(translatableFields),
		FieldHashes: fieldvalue.HashFields(translatableFields),
		LastUpdated: entry.UpdatedAt,
	}

	if depth >= t.config.MaxDepth || visiting[id] {
		return node, nil
	}

	visiting[id] = true
	defer delete(visiting, id)

	schema, err := schemaCache.Get(ctx, entry.ContentTypeID)
	if err != nil {
		// Schema is required to know field order and trackability; without it
		// we still return this node, just without children.
		return node, nil
	}

	for _, fieldSchema := range schema.Fields {
		fieldID := fieldSchema.ID
		if !t.policy.IsTrackable(fieldID) {
			continue
		}
		localized, ok := entry.Fields[fieldID]
		if !ok || !localized.HasLinks() {
			continue
		}
		for _, link := range orderedLinks(localized) {
			if link.LinkType == fieldvalue.LinkTypeAsset {
				continue
			}
			if link.ID == id {
				// A self-link is neither followed nor recorded. A link back to
				// another entry still on the processing stack is recorded by
				// visit as a node without children.
				continue
			}
			child, err := t.visit(ctx, link.ID, depth+1, id, fieldID, visiting, schemaCache)
			if err != nil {
				// Partial.Reference: log and skip this subtree only.
				continue
			}
			node.Children = append(node.Children, child)
		}
	}

	return node, nil
}

// orderedLinks returns the links for localized in source order, taken from
// the alphabetically first locale that holds any, so list-field order is
// deterministic.
func orderedLinks(localized fieldvalue.Localized) []fieldvalue.Link {
	locales := make([]string, 0, len(localized))
	for locale := range localized {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		if links := localized[locale].Links(); len(links) > 0 {
			return links
		}
	}
	return nil
}

// hashedKind reports whether a field of this kind participates in content
// hashing: plain translatable strings and markdown fields both carry
// translated text, so a change to either must surface in the diff.
func hashedKind(k policy.FieldKind) bool {
	return k == policy.FieldTranslatable || k == policy.FieldMarkdown
}

// translatableFields returns entry's fields the Classifier marks translatable.
func (t *Tracker) translatableFields(ctx context.Context, entry *cmsclient.Entry, schemaCache *cmsclient.SchemaCache) map[string]fieldvalue.Localized {
	schema, err := schemaCache.Get(ctx, entry.ContentTypeID)
	if err != nil {
		return nil
	}

	translatable := make(map[string]fieldvalue.Localized)
	for _, fieldSchema := range schema.Fields {
		localized, ok := entry.Fields[fieldSchema.ID]
		if !ok {
			continue
		}
		if hashedKind(t.policy.Classify(entry.ContentTypeID, fieldSchema.ID, localized)) {
			translatable[fieldSchema.ID] = localized
		}
	}
	return translatable
}

// FieldHashes computes the per-field content hashes for entry's translatable
// fields, exported so the Engine can compute the root
// Relationship.FieldHashes with the exact same rule the tree build uses for
// descendant nodes.
func FieldHashes(p policy.Policy, schema *cmsclient.ContentTypeSchema, entry *cmsclient.Entry) map[string]string {
	translatable := make(map[string]fieldvalue.Localized)
	for _, fieldSchema := range schema.Fields {
		localized, ok := entry.Fields[fieldSchema.ID]
		if !ok {
			continue
		}
		if hashedKind(p.Classify(entry.ContentTypeID, fieldSchema.ID, localized)) {
			translatable[fieldSchema.ID] = localized
		}
	}
	return fieldvalue.HashFields(translatable)
}

// hashTranslatableFields computes the aggregate ContentHash over every
// translatable field's value.
func hashTranslatableFields(translatable map[string]fieldvalue.Localized) string {
	merged := fieldvalue.Localized{}
	keys := make([]string, 0, len(translatable))
	for k := range translatable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for locale, v := range translatable[k] {
			merged[k+"\x1f"+locale] = v
		}
	}
	return fieldvalue.Hash(merged)
}
